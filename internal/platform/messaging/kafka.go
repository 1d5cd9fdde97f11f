package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "arcane/contracts/gen/events/v1"
)

const subscriberBuffer = 128

// Handler consumes one delivered envelope.
type Handler func(context.Context, contractsv1.Envelope) error

// Kafka is the event bus the outbox relay publishes to. Delivery is
// in-process fan-out per topic; brokers are recorded for the external
// client that replaces it.
type Kafka struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]chan contractsv1.Envelope
	logger      *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]chan contractsv1.Envelope),
		logger:      logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

// Publish never blocks on a full subscriber; the event is dropped for that
// subscriber and logged.
func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.RLock()
	subs := append([]chan contractsv1.Envelope(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			k.log(slog.LevelWarn, "dropping event for slow subscriber",
				"event", "messaging_publish_drop",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	k.log(slog.LevelInfo, "event published",
		"event", "messaging_publish",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
	)
	return nil
}

// Subscribe delivers topic events to handler until ctx ends.
func (k *Kafka) Subscribe(ctx context.Context, topic string, consumerGroup string, handler Handler) error {
	ch := make(chan contractsv1.Envelope, subscriberBuffer)

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], ch)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					k.log(slog.LevelError, "consumer handler failed",
						"event", "messaging_consume_failed",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) removeSubscriber(topic string, target chan contractsv1.Envelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan contractsv1.Envelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}

func (k *Kafka) log(level slog.Level, msg string, attrs ...any) {
	if k.logger == nil {
		return
	}
	attrs = append(attrs, "module", "internal/platform/messaging", "layer", "platform")
	k.logger.Log(context.Background(), level, msg, attrs...)
}
