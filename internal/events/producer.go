package events

import (
	"context"
	"encoding/json"
	"fmt"

	"socialgrid/internal/bus"
	"socialgrid/pkg/logger"
)

// Producer publishes domain events for one originating service. Every
// mutating endpoint triggers exactly one Emit per domain fact, after the
// local row has committed. A publish failure is surfaced to the caller; the
// local fact already exists at that point, so downstream projections simply
// never see the event (best-effort, not two-phase commit).
type Producer struct {
	pub     bus.Publisher
	service string
}

func NewProducer(pub bus.Publisher, service string) *Producer {
	return &Producer{pub: pub, service: service}
}

// Emit wraps the event in an envelope and appends it to the event's topic,
// keyed by the subject entity id.
func (p *Producer) Emit(ctx context.Context, ev Event) error {
	env, err := Wrap(p.service, ev)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := p.pub.Publish(ctx, bus.Message{
		Topic: ev.Topic(),
		Key:   []byte(ev.Key()),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Topic(), err)
	}
	logger.Debug(ctx, "Event published", "topic", ev.Topic(), "event_id", env.ID)
	return nil
}
