package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	kit "mirabot/internal/transport"
	logx "mirabot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter bridges telebot long polling to the transport.Adapter seam.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	out atomic.Value // chan<- kit.Update

	runMu   sync.Mutex
	running bool
	runWG   sync.WaitGroup
	cancel  context.CancelFunc

	dropped atomic.Uint64

	menuMu   sync.Mutex
	lastMenu string
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.registerHandlers()
	return a, nil
}

func (a *Adapter) registerHandlers() {
	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		a.sendUpdate(kit.Update{
			Kind: kit.UpdateMessage,
			Message: &kit.Message{
				ID:           m.ID,
				ChatID:       m.Chat.ID,
				FromID:       m.Sender.ID,
				FromUsername: m.Sender.Username,
				Text:         m.Text,
			},
		})
		return nil
	})

	a.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		m := c.Message()
		if cb == nil || m == nil {
			return nil
		}
		a.sendUpdate(kit.Update{
			Kind: kit.UpdateCallback,
			Callback: &kit.Callback{
				ID:        cb.ID,
				ChatID:    m.Chat.ID,
				FromID:    cb.Sender.ID,
				MessageID: m.ID,
				Data:      cb.Data,
			},
		})
		return nil
	})
}

func (a *Adapter) sendUpdate(up kit.Update) {
	out, _ := a.out.Load().(chan<- kit.Update)
	if out == nil {
		return
	}
	select {
	case out <- up:
	default:
		// Consumer slower than the poll loop; drop rather than block telebot.
		a.dropped.Add(1)
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return nil
	}
	a.running = true
	a.out.Store(out)

	rctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		go func() {
			<-rctx.Done()
			a.bot.Stop()
		}()
		a.log.Info("telegram polling started")
		a.bot.Start() // blocks until Stop
	}()
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()

	// Keep shutdown snappy even if the long-poll is still waiting.
	grace := time.NewTimer(2 * time.Second)
	defer grace.Stop()
	select {
	case <-done:
		a.log.Info("telegram polling stopped", logx.Any("dropped_updates", a.dropped.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-grace.C:
		a.log.Warn("telegram stop grace elapsed; continuing shutdown")
		return nil
	}
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	sendOpt := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
	}
	if rm, ok := opt.ReplyMarkup.(*tele.ReplyMarkup); ok {
		sendOpt.ReplyMarkup = rm
	}

	var ref kit.MessageRef
	for _, chunk := range chunkText(text, maxMessageRunes) {
		msg, err := a.bot.Send(&tele.Chat{ID: to.ChatID}, chunk, sendOpt)
		if err != nil {
			return kit.MessageRef{}, err
		}
		ref = kit.MessageRef{ChatID: to.ChatID, MessageID: msg.ID}
	}
	return ref, nil
}

// maxMessageRunes is Telegram's hard limit for one message.
const maxMessageRunes = 4096

// chunkText splits text into rune-safe pieces no longer than limit,
// preferring to break on a newline near the end of each window.
func chunkText(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var out []string
	start := 0
	for start < len(text) {
		runes := 0
		end := start
		lastNL := -1
		lastNLRunes := 0
		for end < len(text) && runes < limit {
			r, size := utf8.DecodeRuneInString(text[end:])
			if r == '\n' {
				lastNL = end + size
				lastNLRunes = runes + 1
			}
			runes++
			end += size
		}
		if end < len(text) && lastNL != -1 && lastNLRunes >= limit/3 {
			end = lastNL
		}
		chunk := strings.TrimRight(text[start:end], "\n")
		if chunk != "" {
			out = append(out, chunk)
		}
		start = end
		for start < len(text) {
			r, size := utf8.DecodeRuneInString(text[start:])
			if r != '\n' {
				break
			}
			start += size
		}
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return a.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
}

// UpdateMenuCommands publishes the /menu command list. Best-effort; only
// calls Telegram when the list actually changed.
func (a *Adapter) UpdateMenuCommands(ctx context.Context, cmds []kit.BotCommand) error {
	tc := make([]tele.Command, 0, len(cmds))
	var key strings.Builder
	for _, c := range cmds {
		tc = append(tc, tele.Command{Text: c.Command, Description: c.Description})
		key.WriteString(c.Command)
		key.WriteByte('\x00')
		key.WriteString(c.Description)
		key.WriteByte('\n')
	}

	a.menuMu.Lock()
	defer a.menuMu.Unlock()
	if key.String() == a.lastMenu {
		return nil
	}
	if err := a.bot.SetCommands(tc); err != nil {
		return err
	}
	a.lastMenu = key.String()
	return nil
}
