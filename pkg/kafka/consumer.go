package kafka

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	kafka_config "ceramico/pkg/kafka/config"
	"ceramico/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one consumed message. Returning an error triggers
// the retry policy; exhausted retries send the message to the DLQ when one is
// configured.
type MessageHandler func(ctx context.Context, msg Message) error

// Consumer wraps a kafka-go reader with retry and dead-letter handling.
type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  *kafka.Writer
	handler    MessageHandler
	log        *logger.Logger
	maxRetries int
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

func NewConsumer(cfg *kafka_config.Config, topic, groupID string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    cfg.ConsumerMinBytes,
		MaxBytes:    cfg.ConsumerMaxBytes,
		MaxWait:     cfg.ConsumerMaxWait,
		StartOffset: kafka.FirstOffset,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic + ".dlq",
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
	}

	return &Consumer{
		reader:     reader,
		dlqWriter:  dlqWriter,
		handler:    handler,
		log:        log,
		maxRetries: cfg.ConsumerMaxRetries,
	}, nil
}

// Start fetches and processes messages until ctx is cancelled or Close is
// called. Offsets are committed only after the handler succeeds or the
// message lands in the DLQ, so nothing is silently dropped.
func (c *Consumer) Start(ctx context.Context) error {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return ErrConsumerClosed
		}
		c.mu.RUnlock()

		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Failed to fetch message", "error", err)
			time.Sleep(time.Second)
			continue
		}

		msg := convertMessage(raw)
		if err := c.processMessage(ctx, msg); err != nil {
			c.log.Error("Message processing failed after retries",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
			if dlqErr := c.sendToDLQ(ctx, msg, err); dlqErr != nil {
				c.log.Error("Failed to send message to DLQ", "error", dlqErr)
				// Skip the commit so the message is redelivered.
				continue
			}
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			c.log.Error("Failed to commit offset", "error", err)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.handler(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if !ShouldRetry(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg Message, procErr error) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+3)
	for key, value := range msg.Headers {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderRetryCount, Value: []byte(strconv.Itoa(c.maxRetries))},
		kafka.Header{Key: "failure-reason", Value: []byte(procErr.Error())},
	)

	return c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    time.Now(),
	})
}

func convertMessage(raw kafka.Message) Message {
	headers := make(map[string]string, len(raw.Headers))
	for _, h := range raw.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(raw.Key),
		Value:     raw.Value,
		Headers:   headers,
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    raw.Offset,
		Timestamp: raw.Time,
	}
}

// Close stops the fetch loop and releases the reader and DLQ writer.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.reader.Close()
	if dlqErr := c.dlqWriter.Close(); dlqErr != nil && err == nil {
		err = dlqErr
	}
	c.wg.Wait()
	return err
}
