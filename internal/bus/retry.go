package bus

import (
	"context"
	"time"

	"socialgrid/pkg/logger"
)

// WithRetry wraps a handler with the pipeline's acknowledgement policy:
// retry a failing handler up to maxAttempts with linear backoff, then
// publish the raw message to the topic's dead-letter topic and acknowledge.
// One poison message must not halt the stream.
//
// The wrapped handler returns an error only when the dead-letter publish
// itself fails; the offset then stays uncommitted and the message is
// redelivered by the underlying bus.
func WithRetry(h Handler, dlq Publisher, maxAttempts int, backoff time.Duration) Handler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(ctx context.Context, msg Message) error {
		var err error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err = h(ctx, msg); err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn(ctx, "Handler attempt failed",
				"topic", msg.Topic, "attempt", attempt, "max_attempts", maxAttempts, "error", err)
			if attempt < maxAttempts {
				select {
				case <-time.After(time.Duration(attempt) * backoff):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		dead := Message{Topic: DeadLetterTopic(msg.Topic), Key: msg.Key, Value: msg.Value}
		if pubErr := dlq.Publish(ctx, dead); pubErr != nil {
			logger.Error(ctx, "Dead-letter publish failed; message will be redelivered",
				"topic", msg.Topic, "error", pubErr)
			return pubErr
		}
		logger.Error(ctx, "Message dead-lettered",
			"topic", msg.Topic, "dlq", dead.Topic, "error", err)
		return nil
	}
}
