package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRemindersChannel is the Redis pub/sub channel reminders go to.
const DefaultRemindersChannel = "eventhub:reminders"

// Notifier delivers due reminders.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the structured log.
type LogNotifier struct{}

// Notify logs r.
func (LogNotifier) Notify(ctx context.Context, r Reminder) error {
	slog.InfoContext(ctx, "event reminder",
		slog.String("event_id", r.EventID),
		slog.String("owner", r.Owner),
		slog.String("offset", string(r.Offset)),
		slog.String("subject", r.Subject),
	)
	return nil
}

// RedisNotifier publishes reminders as JSON on a channel. Delivery to
// browsers, mail or chat is left to subscribers.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing on channel
// (DefaultRemindersChannel when empty).
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultRemindersChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Notify PUBLISHes r.
func (n *RedisNotifier) Notify(ctx context.Context, r Reminder) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reminder: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing reminder: %w", err)
	}
	return nil
}

// Mailer sends plain-text email.
type Mailer interface {
	SendMail(ctx context.Context, to []string, subject, body string) error
}

// MailNotifier emails reminders to the session owner. Owners without an
// address are skipped.
type MailNotifier struct {
	mailer Mailer
}

// NewMailNotifier creates a notifier sending through mailer.
func NewMailNotifier(mailer Mailer) *MailNotifier {
	return &MailNotifier{mailer: mailer}
}

// Notify sends r.Subject and r.Body to r.Email.
func (n *MailNotifier) Notify(ctx context.Context, r Reminder) error {
	if r.Email == "" {
		slog.DebugContext(ctx, "reminder has no email address",
			slog.String("event_id", r.EventID),
			slog.String("owner", r.Owner),
		)
		return nil
	}
	if err := n.mailer.SendMail(ctx, []string{r.Email}, r.Subject, r.Body); err != nil {
		return fmt.Errorf("mailing reminder: %w", err)
	}
	return nil
}

// Notifiers delivers each reminder to every notifier in turn. All of them
// are tried; the errors are joined. A failed reminder is retried on the
// next run, so notifiers that succeeded may see it again.
type Notifiers []Notifier

// Notify fans r out.
func (ns Notifiers) Notify(ctx context.Context, r Reminder) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
