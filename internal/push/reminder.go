package push

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

// Sender dispatches one notification to one subscription.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

const reminderNotifType = "event_reminder"

// Reminder pushes a heads-up for published events starting soon. The
// push_sent table guards against duplicates across runs and restarts.
type Reminder struct {
	events  *store.EventStore
	subs    *store.PushStore
	sender  Sender
	logger  *slog.Logger
	baseURL string
	lead    time.Duration
	now     func() time.Time
}

func NewReminder(events *store.EventStore, subs *store.PushStore, sender Sender, baseURL string, lead time.Duration, logger *slog.Logger) *Reminder {
	if lead <= 0 {
		lead = 2 * time.Hour
	}
	return &Reminder{
		events:  events,
		subs:    subs,
		sender:  sender,
		logger:  logger.With("component", "push-reminder"),
		baseURL: baseURL,
		lead:    lead,
		now:     time.Now,
	}
}

// Run sends reminders for events starting within the lead window. Returns
// the number of notifications dispatched.
func (r *Reminder) Run() (int, error) {
	now := r.now().UTC()

	events, err := r.events.ListStartingBetween(now, now.Add(r.lead))
	if err != nil {
		return 0, fmt.Errorf("list starting events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	subs, err := r.subs.List()
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	sent := 0
	for _, ev := range events {
		first, err := r.subs.MarkSent(reminderNotifType, ev.Slug)
		if err != nil {
			return sent, err
		}
		if !first {
			continue
		}

		payload := Payload{
			Title: ev.Title.Resolve(model.DefaultLocale),
			Body:  fmt.Sprintf("Starter %s", ev.StartTime.Format("15:04")),
			URL:   fmt.Sprintf("%s/arrangementer/%s", r.baseURL, ev.Slug),
			Tag:   reminderNotifType + "-" + ev.Slug,
		}

		for i := range subs {
			sub := &subs[i]
			err := r.sender.Send(sub, payload)
			if err == ErrExpired {
				if err := r.subs.Unsubscribe(sub.Endpoint); err != nil {
					r.logger.Warn("drop expired subscription", "error", err)
				}
				continue
			}
			if err != nil {
				r.logger.Warn("push failed", "endpoint", sub.Endpoint, "error", err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}
