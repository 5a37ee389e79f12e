// Package projector converts bus events into local state mutations: counter
// deltas on the entity a service owns, or notification rows in the inbox.
// Every projector runs behind the dedup store, so redelivery of an already
// applied event is a no-op and a failed apply releases its reservation for
// the retry.
package projector

import (
	"context"

	"socialgrid/internal/bus"
	"socialgrid/internal/dedup"
	"socialgrid/internal/events"
	"socialgrid/pkg/logger"
)

// decode parses the envelope and its payload variant from a bus message.
func decode(msg bus.Message) (*events.Envelope, events.Event, error) {
	env, err := events.Decode(msg.Value)
	if err != nil {
		return nil, nil, err
	}
	ev, err := env.Event()
	if err != nil {
		return nil, nil, err
	}
	return env, ev, nil
}

// applyOnce runs fn under a (topic, eventId) reservation. A duplicate
// delivery is acknowledged without side effects; a failed fn releases the
// reservation so the redelivery can apply.
func applyOnce(ctx context.Context, d dedup.Deduper, env *events.Envelope, fn func(context.Context) error) error {
	fresh, err := d.Reserve(ctx, env.EventType, env.ID)
	if err != nil {
		return err
	}
	if !fresh {
		logger.Debug(ctx, "Duplicate event dropped", "topic", env.EventType, "event_id", env.ID)
		return nil
	}
	if err := fn(ctx); err != nil {
		d.Release(ctx, env.EventType, env.ID)
		return err
	}
	return nil
}
