// Package bot routes chat updates to reminder commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"mirabot/internal/eventbus"
	"mirabot/internal/parse"
	"mirabot/internal/services/dispatch"
	"mirabot/internal/storage"
	"mirabot/internal/transport"
	"mirabot/pkg/logx"
)

// Cache is the due-reminder cache as the router sees it.
type Cache interface {
	parse.DueLookup
	Refresh(ctx context.Context) error
}

// Router consumes transport updates and executes commands. A pending
// reminder whose owner still has to pick a date format is parked per
// user and resumed from the dialog callback; there is no process-wide
// selection state.
type Router struct {
	adapter transport.Adapter
	store   storage.Store
	parser  *parse.Parser
	cache   Cache
	bus     eventbus.Bus
	log     logx.Logger

	pending pendingDrafts
}

// New builds a router. bus may be nil when nothing listens.
func New(adapter transport.Adapter, store storage.Store, parser *parse.Parser, cache Cache, bus eventbus.Bus, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		adapter: adapter,
		store:   store,
		parser:  parser,
		cache:   cache,
		bus:     bus,
		log:     log,
	}
}

func (r *Router) publish(typ string, reminderID, ownerID int64) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.Event{Type: typ, ReminderID: reminderID, OwnerID: ownerID})
}

// Commands is the menu published to the platform.
func Commands() []transport.BotCommand {
	return []transport.BotCommand{
		{Command: "remind", Description: "Set a reminder: /remind [@user] <when> <message>"},
		{Command: "reminders", Description: "List your active reminders"},
		{Command: "cancel", Description: "Cancel a reminder: /cancel <id>"},
		{Command: "timezone", Description: "Set your timezone: /timezone Europe/Berlin"},
		{Command: "dateformat", Description: "Choose how numeric dates read"},
	}
}

// Run consumes updates until ctx is done.
func (r *Router) Run(ctx context.Context, updates <-chan transport.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-updates:
			if !ok {
				return
			}
			r.handle(ctx, up)
		}
	}
}

func (r *Router) handle(ctx context.Context, up transport.Update) {
	switch up.Kind {
	case transport.UpdateMessage:
		if up.Message != nil {
			r.handleMessage(ctx, up.Message)
		}
	case transport.UpdateCallback:
		if up.Callback != nil {
			r.handleCallback(ctx, up.Callback)
		}
	}
}

func (r *Router) handleMessage(ctx context.Context, m *transport.Message) {
	cmd, args := splitCommand(m.Text)
	if cmd == "" {
		return
	}

	// Any interaction keeps the identity record current.
	if err := r.store.UpsertUser(ctx, storage.User{ID: m.FromID, Username: m.FromUsername}); err != nil {
		r.log.Error("user upsert failed", logx.Int64("user_id", m.FromID), logx.Err(err))
	}

	var err error
	switch cmd {
	case "start", "help":
		err = r.reply(ctx, m.ChatID, helpText)
	case "remind", "remindme":
		err = r.handleRemind(ctx, m, args)
	case "reminders", "list":
		err = r.handleList(ctx, m)
	case "cancel":
		err = r.handleCancel(ctx, m, args)
	case "timezone", "tz":
		err = r.handleTimezone(ctx, m, args)
	case "dateformat":
		err = r.sendDateOrderDialog(ctx, m.ChatID)
	default:
		err = r.reply(ctx, m.ChatID, "I don't know that command. Try /help.")
	}
	if err != nil {
		r.log.Error("command failed",
			logx.String("command", cmd), logx.Int64("user_id", m.FromID), logx.Err(err))
	}
}

const helpText = `I set reminders from plain text.

/remind in 2 hours take out the laundry
/remind @sam next friday at 3pm tea party
/remind every tuesday standup notes

/reminders lists yours, /cancel <id> removes one.
/timezone and /dateformat tune how I read times.`

// handleRemind resolves owner and recipient records, then parses. A
// missing identity here is an upstream contract violation and is
// surfaced as an error, not a polite rejection.
func (r *Router) handleRemind(ctx context.Context, m *transport.Message, args string) error {
	owner, err := r.store.GetUser(ctx, m.FromID)
	if err != nil {
		return fmt.Errorf("owner %d: %w", m.FromID, err)
	}

	recipientID := owner.ID
	if target, rest, ok := leadingMention(args); ok {
		rec, err := r.store.GetUserByUsername(ctx, target)
		if errors.Is(err, storage.ErrNotFound) {
			return r.reply(ctx, m.ChatID, fmt.Sprintf("I haven't met @%s yet; they need to /start me first.", target))
		}
		if err != nil {
			return fmt.Errorf("recipient @%s: %w", target, err)
		}
		recipientID = rec.ID
		args = rest
	}

	// Numeric dates are ambiguous until the owner picks a format.
	if owner.DateOrder == parse.OrderUnset && containsNumericDate(args) {
		r.pending.put(owner.ID, pendingDraft{recipientID: recipientID, text: args, chatID: m.ChatID})
		return r.sendDateOrderDialog(ctx, m.ChatID)
	}

	return r.createReminder(ctx, m.ChatID, owner, recipientID, args)
}

func (r *Router) createReminder(ctx context.Context, chatID int64, owner storage.User, recipientID int64, text string) error {
	count, err := r.store.CountActive(ctx, owner.ID)
	if err != nil {
		return fmt.Errorf("count active: %w", err)
	}

	res, err := r.parser.Parse(parse.Owner{
		ID:          owner.ID,
		Username:    owner.Username,
		Timezone:    owner.Timezone,
		Order:       owner.DateOrder,
		ActiveCount: count,
	}, recipientID, text)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if !res.OK {
		r.log.Debug("reminder rejected",
			logx.Int64("owner_id", owner.ID), logx.String("reason", res.Reason.String()))
		return r.reply(ctx, chatID, res.Message)
	}

	d := res.Draft
	id, err := r.store.CreateReminder(ctx, storage.Reminder{
		OwnerID:     d.OwnerID,
		RecipientID: d.RecipientID,
		Message:     d.Message,
		Due:         d.Due,
		Recurring:   d.Recurring,
		Cadence:     d.Cadence,
	})
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	// Fold the new reminder into the spam-check snapshot right away.
	if err := r.cache.Refresh(ctx); err != nil {
		r.log.Warn("cache refresh after create failed", logx.Err(err))
	}

	r.publish(eventbus.ReminderCreated, id, d.OwnerID)
	r.log.Info("reminder created",
		logx.Int64("reminder_id", id),
		logx.Int64("owner_id", d.OwnerID),
		logx.Int64("recipient_id", d.RecipientID),
		logx.Time("due", d.Due),
		logx.Bool("recurring", d.Recurring))
	return r.reply(ctx, chatID, res.Message)
}

func (r *Router) handleList(ctx context.Context, m *transport.Message) error {
	items, err := r.store.ActiveReminders(ctx, m.FromID)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	if len(items) == 0 {
		return r.reply(ctx, m.ChatID, "No active reminders.")
	}
	loc := r.ownerLocation(ctx, m.FromID)
	var b strings.Builder
	b.WriteString("Your reminders:\n")
	for _, it := range items {
		b.WriteString(dispatch.Describe(it, loc))
		b.WriteByte('\n')
	}
	return r.reply(ctx, m.ChatID, b.String())
}

func (r *Router) handleCancel(ctx context.Context, m *transport.Message, args string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(args, "#")), 10, 64)
	if err != nil {
		return r.reply(ctx, m.ChatID, "Usage: /cancel <id> (see /reminders).")
	}
	err = r.store.DeleteReminder(ctx, id, m.FromID)
	if errors.Is(err, storage.ErrNotFound) {
		return r.reply(ctx, m.ChatID, "That reminder doesn't exist (or isn't yours).")
	}
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	if err := r.cache.Refresh(ctx); err != nil {
		r.log.Warn("cache refresh after cancel failed", logx.Err(err))
	}
	r.publish(eventbus.ReminderCancelled, id, m.FromID)
	return r.reply(ctx, m.ChatID, fmt.Sprintf("Cancelled #%d.", id))
}

func (r *Router) handleTimezone(ctx context.Context, m *transport.Message, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return r.reply(ctx, m.ChatID, "Usage: /timezone Area/City (e.g. /timezone Europe/Berlin).")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return r.reply(ctx, m.ChatID, fmt.Sprintf("I don't know the timezone %q.", name))
	}
	if err := r.store.SetTimezone(ctx, m.FromID, name); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return r.reply(ctx, m.ChatID, fmt.Sprintf("Timezone set to %s.", name))
}

// ---- date-format dialog ----

const (
	cbOrderMonthFirst = "dateorder:mdy"
	cbOrderDayFirst   = "dateorder:dmy"
)

func (r *Router) sendDateOrderDialog(ctx context.Context, chatID int64) error {
	markup := &tele.ReplyMarkup{}
	mdy := markup.Data("Month/Day (8/30)", "dateorder", "mdy")
	dmy := markup.Data("Day/Month (30/8)", "dateorder", "dmy")
	markup.Inline(markup.Row(mdy, dmy))
	_, err := r.adapter.SendText(ctx, transport.ChatTarget{ChatID: chatID},
		"How should I read numeric dates like 8/3?", &transport.SendOptions{ReplyMarkup: markup})
	return err
}

func (r *Router) handleCallback(ctx context.Context, cb *transport.Callback) {
	order, ok := dateOrderFromCallback(cb.Data)
	if !ok {
		return
	}
	if err := r.store.SetDateOrder(ctx, cb.FromID, order); err != nil {
		r.log.Error("set date order failed", logx.Int64("user_id", cb.FromID), logx.Err(err))
		return
	}
	_ = r.adapter.AnswerCallback(ctx, cb.ID, "Saved.")

	// Resume the reminder that triggered the dialog, if any.
	draft, ok := r.pending.take(cb.FromID)
	if !ok {
		return
	}
	owner, err := r.store.GetUser(ctx, cb.FromID)
	if err != nil {
		r.log.Error("owner lookup failed", logx.Int64("user_id", cb.FromID), logx.Err(err))
		return
	}
	if err := r.createReminder(ctx, draft.chatID, owner, draft.recipientID, draft.text); err != nil {
		r.log.Error("resumed reminder failed", logx.Int64("user_id", cb.FromID), logx.Err(err))
	}
}

func dateOrderFromCallback(data string) (parse.DateOrder, bool) {
	// telebot prefixes callback data with "\f<unique>|".
	data = strings.TrimPrefix(strings.TrimPrefix(data, "\f"), "dateorder|")
	switch data {
	case "mdy", cbOrderMonthFirst:
		return parse.OrderMonthFirst, true
	case "dmy", cbOrderDayFirst:
		return parse.OrderDayFirst, true
	default:
		return parse.OrderUnset, false
	}
}

func (r *Router) ownerLocation(ctx context.Context, userID int64) *time.Location {
	u, err := r.store.GetUser(ctx, userID)
	if err != nil || u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) error {
	_, err := r.adapter.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text, nil)
	return err
}
