package kafka_middleware

import (
	"context"
	"time"

	"ceramico/pkg/kafka"
	"ceramico/pkg/logger"
)

// LoggingProducer logs every publish with its outcome and duration.
func LoggingProducer(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to publish event",
				"event_type", msg.EventType(),
				"key", msg.Key,
				"duration_ms", duration.Milliseconds(),
				"error", err)
			return err
		}

		log.Info("Published event",
			"event_type", msg.EventType(),
			"key", msg.Key,
			"duration_ms", duration.Milliseconds())
		return nil
	}
}
