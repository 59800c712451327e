// Package parse turns free-form reminder text into a concrete schedule.
//
// # Overview
//
// Parse receives the raw text of a reminder request together with the
// owner's preferences (timezone, date order) and produces either a draft
// reminder (a future UTC instant, an optional recurrence cadence, and the
// cleaned human message) or a structured rejection.
//
// There is no grammar engine. The text is split into an ordered token
// buffer and a fixed sequence of extractors runs over it, each consuming
// the tokens it recognizes:
//
//   - spelled month-day dates ("august 30th")
//   - numeric dates ("8/30", "30.8.2026"), honoring the owner's
//     month-first/day-first preference
//   - clock times ("3pm", "15:04"), with AM/PM merge
//   - weekday references ("next friday", "other tuesday", "2 monday")
//   - compound relative offsets ("in 1 week and 2 days")
//   - the "every" recurrence keyword
//
// Whatever the extractors leave behind, minus filler words, becomes the
// reminder message.
//
// Parsing is synchronous and holds no state across calls; a single Parser
// may be used concurrently. The only collaborators are a clock, the
// timezone database, and a read-only due-reminder lookup consulted by the
// anti-spam policy.
package parse
