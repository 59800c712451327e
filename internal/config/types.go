package config

// Config is the full bot configuration. Files may be JSON or YAML; YAML
// is coerced to JSON and both go through the same strict decoder.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Reminders RemindersConfig `json:"reminders"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string (sqlite).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// RemindersConfig tunes parsing limits, anti-spam policy, and the due
// cache. All duration fields are Go duration strings.
type RemindersConfig struct {
	MaxPerUser    int    `json:"max_per_user,omitempty"`    // default 25
	MaxMessageLen int    `json:"max_message_len,omitempty"` // default 250
	Developer     string `json:"developer,omitempty"`       // username exempt from limits
	DefaultHour   int    `json:"default_hour,omitempty"`    // default 17 (local)
	Locale        string `json:"locale,omitempty"`          // month-name locale, "en" only

	SpamWindow     string `json:"spam_window,omitempty"`     // default "5m"
	CacheRefresh   string `json:"cache_refresh,omitempty"`   // default "1m"
	CacheLookahead string `json:"cache_lookahead,omitempty"` // default "1h"
	DispatchTick   string `json:"dispatch_tick,omitempty"`   // default "5s"
	SendRatePerSec int    `json:"send_rate_per_sec,omitempty"`
}
