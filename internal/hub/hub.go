package hub

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"token-radar/internal/domain"
)

// Conn is the slice of a websocket connection the hub needs.
// *websocket.Conn from gorilla/websocket satisfies it.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// SentimentProvider serves sentiment snapshots for inbound requests
// and the periodic stream.
type SentimentProvider interface {
	GetTokenSentiment(ctx context.Context, token string, useCache bool) (domain.TokenSentiment, error)
	GetAllSentiments(ctx context.Context, useCache bool) map[string]domain.TokenSentiment
}

type connState int

const (
	stateConnecting connState = iota
	stateConnected
	stateDisconnected
)

// subscriber is one websocket client. Writes are serialized per
// subscriber; disconnected is terminal.
type subscriber struct {
	mu            sync.Mutex
	conn          Conn
	state         connState
	subscriptions map[string]struct{}
}

func (s *subscriber) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateDisconnected {
		return nil
	}
	return s.conn.WriteJSON(v)
}

// sendIfConnected skips subscribers still mid-handshake; broadcasts
// only reach the connected set.
func (s *subscriber) sendIfConnected(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateConnected {
		return nil
	}
	return s.conn.WriteJSON(v)
}

// inboundMessage is the envelope clients send.
type inboundMessage struct {
	Type   string   `json:"type"`
	Token  string   `json:"token,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
}

// Hub fans sentiment updates out to websocket subscribers. Delivery is
// best effort and per-subscriber independent: one failed write drops
// that subscriber without blocking the rest.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	sentiment   SentimentProvider
	now         func() time.Time
}

func NewHub(sentiment SentimentProvider) *Hub {
	return &Hub{
		subscribers: map[*subscriber]struct{}{},
		sentiment:   sentiment,
		now:         time.Now,
	}
}

// ConnectionCount reports the number of live subscribers.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()

	sub.mu.Lock()
	if sub.state != stateDisconnected {
		sub.state = stateDisconnected
		sub.conn.Close()
	}
	sub.mu.Unlock()
}

// Broadcast writes a message to every connected subscriber.
// Subscribers whose write fails are dropped.
func (h *Hub) Broadcast(message interface{}) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.sendIfConnected(message); err != nil {
			log.Printf("broadcast write failed, dropping subscriber: %v", err)
			h.unregister(sub)
		}
	}
}

// HandleConnection owns one client connection: handshake, then a read
// loop dispatching on message type until the client disconnects.
func (h *Hub) HandleConnection(ctx context.Context, conn Conn) {
	sub := &subscriber{
		conn:          conn,
		state:         stateConnecting,
		subscriptions: map[string]struct{}{},
	}
	h.register(sub)
	defer h.unregister(sub)

	if err := sub.send(map[string]interface{}{
		"type":             "connection",
		"status":           "connected",
		"connection_count": h.ConnectionCount(),
		"timestamp":        h.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return
	}
	sub.mu.Lock()
	sub.state = stateConnected
	sub.mu.Unlock()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := h.dispatch(ctx, sub, msg); err != nil {
			return
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, sub *subscriber, msg inboundMessage) error {
	switch msg.Type {
	case "ping":
		return sub.send(map[string]interface{}{
			"type":      "pong",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})

	case "request_sentiment":
		if len(msg.Tokens) > 0 {
			return h.sendSentiments(ctx, sub, msg.Tokens)
		}
		return h.sendSentiment(ctx, sub, msg.Token)

	case "subscribe":
		for _, token := range msg.Tokens {
			token = strings.ToUpper(strings.TrimSpace(token))
			if token != "" {
				sub.subscriptions[token] = struct{}{}
			}
		}
		tokens := make([]string, 0, len(sub.subscriptions))
		for token := range sub.subscriptions {
			tokens = append(tokens, token)
		}
		return sub.send(map[string]interface{}{
			"type":   "subscribed",
			"tokens": tokens,
		})

	default:
		return sub.send(map[string]interface{}{
			"type":    "error",
			"message": "unknown message type: " + msg.Type,
		})
	}
}

func (h *Hub) sendSentiment(ctx context.Context, sub *subscriber, token string) error {
	if token = strings.ToUpper(strings.TrimSpace(token)); token != "" {
		sentiment, err := h.sentiment.GetTokenSentiment(ctx, token, true)
		if err != nil {
			return sub.send(map[string]interface{}{
				"type":    "error",
				"message": "sentiment unavailable for " + token,
			})
		}
		return sub.send(map[string]interface{}{
			"type": "sentiment",
			"data": sentiment,
		})
	}

	return sub.send(map[string]interface{}{
		"type": "sentiment",
		"data": h.sentiment.GetAllSentiments(ctx, true),
	})
}

func (h *Hub) sendSentiments(ctx context.Context, sub *subscriber, tokens []string) error {
	data := make(map[string]domain.TokenSentiment, len(tokens))
	for _, token := range tokens {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		sentiment, err := h.sentiment.GetTokenSentiment(ctx, token, true)
		if err != nil {
			continue
		}
		data[token] = sentiment
	}
	return sub.send(map[string]interface{}{
		"type": "sentiment",
		"data": data,
	})
}

const maxStreamBackoff = 8

// Stream periodically broadcasts a sentiment_update to all
// subscribers. Empty cycles back off exponentially up to 8x the
// interval; a successful cycle resets it.
func (h *Hub) Stream(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	backoff := 1
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if h.ConnectionCount() == 0 {
			timer.Reset(interval)
			continue
		}

		sentiments := h.sentiment.GetAllSentiments(ctx, true)
		if len(sentiments) == 0 {
			if backoff < maxStreamBackoff {
				backoff *= 2
			}
			timer.Reset(interval * time.Duration(backoff))
			continue
		}
		backoff = 1

		h.Broadcast(map[string]interface{}{
			"type":             "sentiment_update",
			"data":             sentiments,
			"connection_count": h.ConnectionCount(),
			"timestamp":        h.now().UTC().Format(time.RFC3339),
		})
		timer.Reset(interval)
	}
}
