package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/localmart/storefront/internal/pkg/metrics"
)

const (
	storeEventsSubject = "catalog.store.>"
	broadcastSubject   = "catalog.updates.broadcast"
)

// wsMessage is sent from client to subscribe/unsubscribe to catalog events.
type wsMessage struct {
	Action  string `json:"action"`   // "subscribe" | "unsubscribe"
	Event   string `json:"event"`    // created | updated | deleted | located, "" = all
	StoreID string `json:"store_id"` // optional, "" = all stores
}

// wsSubject maps a client filter onto the NATS subject pattern the events
// are published on: catalog.store.<type>.<store id>.
func wsSubject(m wsMessage) (string, bool) {
	event, store := "*", "*"
	if m.Event != "" {
		event = m.Event
	}
	if m.StoreID != "" {
		store = m.StoreID
	}
	for _, tok := range []string{event, store} {
		if strings.ContainsAny(tok, ".> \t") {
			return "", false
		}
	}
	return "catalog.store." + event + "." + store, true
}

// allStoreEvents is the filter every client starts with.
const allStoreEvents = "catalog.store.*.*"

// wsFilters is the set of subject patterns a client listens to. Events are
// matched against the whole set, so overlapping patterns still deliver each
// event once.
type wsFilters struct {
	mu       sync.Mutex
	patterns map[string]struct{}
}

func newWSFilters() *wsFilters {
	return &wsFilters{patterns: map[string]struct{}{allStoreEvents: {}}}
}

// add registers pattern. Narrowing drops the initial catch-all filter and
// asking for everything again replaces the narrower ones.
func (f *wsFilters) add(pattern string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patterns[pattern]; ok {
		return false
	}
	if pattern == allStoreEvents {
		clear(f.patterns)
	} else {
		delete(f.patterns, allStoreEvents)
	}
	f.patterns[pattern] = struct{}{}
	return true
}

func (f *wsFilters) remove(pattern string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patterns[pattern]; !ok {
		return false
	}
	delete(f.patterns, pattern)
	return true
}

func (f *wsFilters) matches(subject string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p := range f.patterns {
		if subjectMatches(p, subject) {
			return true
		}
	}
	return false
}

// subjectMatches reports whether subject fits pattern token by token, with
// "*" matching any single token.
func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	if len(pt) != len(st) {
		return false
	}
	for i := range pt {
		if pt[i] != "*" && pt[i] != st[i] {
			return false
		}
	}
	return true
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// catalog events from NATS to connected clients. Every client starts with
// all store events plus broadcasts and may narrow that with
// {"action":"subscribe","event":"located","store_id":"..."}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("remote_addr", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "event stream not available"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Debug("ws client connected")

		filters := newWSFilters()
		relay := func(msg *nats.Msg) {
			if msg.Subject == broadcastSubject || filters.matches(msg.Subject) {
				_ = writeJSON(json.RawMessage(msg.Data))
			}
		}

		var subs []*nats.Subscription
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			log.Debug("ws client disconnected")
		}()

		for _, subject := range []string{storeEventsSubject, broadcastSubject} {
			sub, err := nc.Subscribe(subject, relay)
			if err != nil {
				log.Error("ws subscribe failed", "subject", subject, "error", err)
				return
			}
			subs = append(subs, sub)
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := wsSubject(m)
			if !ok {
				_ = writeJSON(map[string]string{"error": "invalid event or store_id"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if !filters.add(subject) {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if filters.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}
	}
}
