package engine

import (
	"context"
	"strconv"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
)

const subscriberBuffer = 16

// Subscribe registers a listener for tracking events. Delivery is best
// effort: a full channel drops the event, which remains readable through
// Events. The returned func unsubscribes and closes the channel.
func (t *Tracker) Subscribe() (<-chan models.TrackingEvent, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan models.TrackingEvent, subscriberBuffer)
	t.subs[id] = ch

	var once bool
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(t.subs, id)
		close(ch)
	}
}

// publish persists ev and fans it out to subscribers. Events that fail to
// persist are retried on the next CheckIdle.
func (t *Tracker) publish(ctx context.Context, ev *models.TrackingEvent) {
	cctx, cancel := t.storeCtx(ctx)
	defer cancel()

	if err := t.store.AppendEvent(cctx, ev); err != nil {
		t.logger.Warn("failed to persist tracking event, will retry", "kind", ev.Kind, "error", err)
		t.undelivered = append(t.undelivered, ev)
	}

	for _, ch := range t.subs {
		select {
		case ch <- *ev:
		default:
			t.logger.Warn("subscriber channel full, dropping event", "kind", ev.Kind)
		}
	}
}

func (t *Tracker) flushLocked(ctx context.Context) {
	if len(t.undelivered) == 0 {
		return
	}
	cctx, cancel := t.storeCtx(ctx)
	defer cancel()

	remaining := t.undelivered[:0]
	for _, ev := range t.undelivered {
		if err := t.store.AppendEvent(cctx, ev); err != nil {
			remaining = append(remaining, ev)
		}
	}
	t.undelivered = remaining
}

// Events lists durable tracking events.
func (t *Tracker) Events(ctx context.Context, filter store.EventFilter) ([]*models.TrackingEvent, error) {
	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	events, err := t.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, StoreError("list events", "", err)
	}
	return events, nil
}

// AckEvent marks an event as seen by a consumer.
func (t *Tracker) AckEvent(ctx context.Context, id int64) error {
	ctx, cancel := t.storeCtx(ctx)
	defer cancel()

	if err := t.store.AckEvent(ctx, id); err != nil {
		return StoreError("ack event", strconv.FormatInt(id, 10), err)
	}
	return nil
}
