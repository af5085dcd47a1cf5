package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	pstrings "veritas/pkg/platform/strings"
)

const defaultBufferSize = 256

// Publisher buffers events on a channel and produces them to Kafka from a
// background worker (Run). Emit never blocks the request path.
type Publisher struct {
	client *kgo.Client
	topic  string
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher connects to the Kafka brokers and ensures the topic exists.
// brokers is a comma-separated seed list.
func NewPublisher(brokers, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(pstrings.DedupeAndTrim(strings.Split(brokers, ","))...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{
		client: client,
		topic:  topic,
		inbox:  make(chan Event, defaultBufferSize),
		logger: logger,
	}, nil
}

func ensureTopic(client *kgo.Client, topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 3, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	// Already-exists is fine; any other per-topic error is not.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// Emit enqueues an event for publishing. Drops with a warning when the
// buffer is full rather than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "event buffer full, dropping event",
			"type", event.Type,
			"key", event.Key,
		)
	}
}

// Run drains the inbox and produces each event to Kafka until ctx is
// cancelled. Produce failures are logged and the event is dropped; the
// ledger store remains the source of truth.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			p.produce(ctx, event)
		}
	}
}

func (p *Publisher) produce(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event failed",
			"type", event.Type,
			"error", err,
		)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "produce event failed",
			"type", event.Type,
			"key", event.Key,
			"error", err,
		)
	}
}

// Close flushes pending produce requests and releases the client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
