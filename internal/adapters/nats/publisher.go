package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/localmart/storefront/internal/core/domain"
)

// Subjects and stream carrying catalog events.
const (
	StoreEventsStream  = "CATALOG_EVENTS"
	StoreEventsSubject = "catalog.store.>"
	BroadcastSubject   = "catalog.updates.broadcast"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist. Limits retention lets every API instance
	// consume each event independently.
	streams := []nats.StreamConfig{
		{
			Name:      StoreEventsStream,
			Subjects:  []string{StoreEventsSubject},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishStoreEvent publishes evt on catalog.store.<type>.<store id>.
func (p *Publisher) PublishStoreEvent(ctx context.Context, evt *domain.StoreEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(StoreEventSubject(evt))
	msg.Data = data
	// JetStream drops duplicates carrying the same message ID.
	if evt.ID != "" {
		msg.Header.Set(nats.MsgIdHdr, evt.ID)
	}
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(BroadcastSubject, data)
}

// Ping reports whether the connection is usable.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// StoreEventSubject returns the subject a store event is published on.
func StoreEventSubject(evt *domain.StoreEvent) string {
	typ := evt.Type
	if typ == "" {
		typ = "unknown"
	}
	return "catalog.store." + token(typ) + "." + token(evt.StoreID)
}

// token makes s safe to use as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
