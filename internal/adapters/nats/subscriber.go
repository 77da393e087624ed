package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/pkg/logging"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeStoreEvents delivers every new store event to handler. The
// consumer is ephemeral so each process sees the full stream.
func (s *Subscriber) SubscribeStoreEvents(ctx context.Context, handler func(ctx context.Context, event *domain.StoreEvent) error) error {
	sub, err := s.js.Subscribe(StoreEventsSubject, func(msg *nats.Msg) {
		evt, err := DecodeStoreEvent(msg.Data)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "dropping malformed store event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, evt); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// DecodeStoreEvent parses a store event payload.
func DecodeStoreEvent(data []byte) (*domain.StoreEvent, error) {
	var evt domain.StoreEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("decode store event: %w", err)
	}
	if evt.StoreID == "" {
		return nil, fmt.Errorf("decode store event: missing store_id")
	}
	return &evt, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
