package hub

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"token-radar/internal/domain"
)

type fakeConn struct {
	mu       sync.Mutex
	inbound  chan inboundMessage
	writes   chan interface{}
	writeErr error
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan inboundMessage, 8),
		writes:  make(chan interface{}, 16),
	}
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	msg, ok := <-f.inbound
	if !ok {
		return errors.New("connection closed")
	}
	*(v.(*inboundMessage)) = msg
	return nil
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	err := f.writeErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.writes <- v
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) failWrites() {
	f.mu.Lock()
	f.writeErr = errors.New("broken pipe")
	f.mu.Unlock()
}

func expectWrite(t *testing.T, conn *fakeConn) map[string]interface{} {
	t.Helper()
	select {
	case v := <-conn.writes:
		msg, ok := v.(map[string]interface{})
		if !ok {
			t.Fatalf("unexpected message type %T", v)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
		return nil
	}
}

type stubProvider struct {
	sentiments map[string]domain.TokenSentiment
}

func (s *stubProvider) GetTokenSentiment(ctx context.Context, token string, useCache bool) (domain.TokenSentiment, error) {
	if sentiment, ok := s.sentiments[token]; ok {
		return sentiment, nil
	}
	return domain.TokenSentiment{}, errors.New("no sentiment")
}

func (s *stubProvider) GetAllSentiments(ctx context.Context, useCache bool) map[string]domain.TokenSentiment {
	return s.sentiments
}

func startConnection(t *testing.T, h *Hub) (*fakeConn, chan struct{}) {
	t.Helper()
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.HandleConnection(context.Background(), conn)
		close(done)
	}()

	msg := expectWrite(t, conn)
	if msg["type"] != "connection" || msg["status"] != "connected" {
		t.Fatalf("unexpected handshake: %v", msg)
	}
	return conn, done
}

func TestHandshakeAndConnectionCount(t *testing.T) {
	h := NewHub(&stubProvider{})

	conn, done := startConnection(t, h)
	if h.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1", h.ConnectionCount())
	}

	close(conn.inbound)
	<-done
	if h.ConnectionCount() != 0 {
		t.Fatalf("connection count after disconnect = %d, want 0", h.ConnectionCount())
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.closed {
		t.Fatal("expected connection closed on disconnect")
	}
}

func TestPingPong(t *testing.T) {
	h := NewHub(&stubProvider{})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "ping"}
	if msg := expectWrite(t, conn); msg["type"] != "pong" {
		t.Fatalf("expected pong, got %v", msg)
	}
}

func TestRequestSentimentSingleToken(t *testing.T) {
	h := NewHub(&stubProvider{sentiments: map[string]domain.TokenSentiment{
		"DOGE": {Token: "DOGE", SentimentScore: 80},
	}})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "request_sentiment", Token: "doge"}
	msg := expectWrite(t, conn)
	if msg["type"] != "sentiment" {
		t.Fatalf("expected sentiment, got %v", msg)
	}
	data, ok := msg["data"].(domain.TokenSentiment)
	if !ok || data.SentimentScore != 80 {
		t.Fatalf("unexpected payload: %v", msg["data"])
	}
}

func TestRequestSentimentUnknownTokenIsError(t *testing.T) {
	h := NewHub(&stubProvider{})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "request_sentiment", Token: "GHOST"}
	if msg := expectWrite(t, conn); msg["type"] != "error" {
		t.Fatalf("expected error, got %v", msg)
	}
}

func TestRequestSentimentAllTokens(t *testing.T) {
	h := NewHub(&stubProvider{sentiments: map[string]domain.TokenSentiment{
		"DOGE": {Token: "DOGE"},
		"PEPE": {Token: "PEPE"},
	}})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "request_sentiment"}
	msg := expectWrite(t, conn)
	data, ok := msg["data"].(map[string]domain.TokenSentiment)
	if !ok || len(data) != 2 {
		t.Fatalf("unexpected payload: %v", msg["data"])
	}
}

func TestRequestSentimentTokenList(t *testing.T) {
	h := NewHub(&stubProvider{sentiments: map[string]domain.TokenSentiment{
		"DOGE": {Token: "DOGE"},
		"PEPE": {Token: "PEPE"},
	}})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	// Unknown tokens are skipped, not errors, on a list request.
	conn.inbound <- inboundMessage{Type: "request_sentiment", Tokens: []string{"doge", "GHOST"}}
	msg := expectWrite(t, conn)
	if msg["type"] != "sentiment" {
		t.Fatalf("expected sentiment, got %v", msg)
	}
	data, ok := msg["data"].(map[string]domain.TokenSentiment)
	if !ok || len(data) != 1 || data["DOGE"].Token != "DOGE" {
		t.Fatalf("unexpected payload: %v", msg["data"])
	}
}

func TestSubscribeAcknowledges(t *testing.T) {
	h := NewHub(&stubProvider{})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "subscribe", Tokens: []string{"doge", " pepe ", ""}}
	msg := expectWrite(t, conn)
	if msg["type"] != "subscribed" {
		t.Fatalf("expected subscribed, got %v", msg)
	}
	tokens := msg["tokens"].([]string)
	sort.Strings(tokens)
	if len(tokens) != 2 || tokens[0] != "DOGE" || tokens[1] != "PEPE" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}

func TestSubscribeDoesNotFilterBroadcasts(t *testing.T) {
	h := NewHub(&stubProvider{})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "subscribe", Tokens: []string{"DOGE"}}
	expectWrite(t, conn)

	h.Broadcast(map[string]interface{}{"type": "sentiment_update", "token": "PEPE"})
	if msg := expectWrite(t, conn); msg["type"] != "sentiment_update" {
		t.Fatalf("expected broadcast despite subscription, got %v", msg)
	}
}

func TestUnknownMessageTypeRejected(t *testing.T) {
	h := NewHub(&stubProvider{})
	conn, done := startConnection(t, h)
	defer func() { close(conn.inbound); <-done }()

	conn.inbound <- inboundMessage{Type: "upgrade_me"}
	msg := expectWrite(t, conn)
	if msg["type"] != "error" {
		t.Fatalf("expected error, got %v", msg)
	}
}

func TestBroadcastDropsFailedSubscriberOnly(t *testing.T) {
	h := NewHub(&stubProvider{})
	good, goodDone := startConnection(t, h)
	bad, badDone := startConnection(t, h)

	bad.failWrites()
	h.Broadcast(map[string]interface{}{"type": "sentiment_update"})

	if msg := expectWrite(t, good); msg["type"] != "sentiment_update" {
		t.Fatalf("healthy subscriber missed broadcast: %v", msg)
	}
	if h.ConnectionCount() != 1 {
		t.Fatalf("connection count = %d, want 1 after drop", h.ConnectionCount())
	}

	close(good.inbound)
	close(bad.inbound)
	<-goodDone
	<-badDone
}

func TestBroadcastSkipsConnectingSubscriber(t *testing.T) {
	h := NewHub(&stubProvider{})
	connected, done := startConnection(t, h)
	defer func() { close(connected.inbound); <-done }()

	// Registered but still mid-handshake.
	pending := newFakeConn()
	h.register(&subscriber{
		conn:          pending,
		state:         stateConnecting,
		subscriptions: map[string]struct{}{},
	})

	h.Broadcast(map[string]interface{}{"type": "sentiment_update"})

	if msg := expectWrite(t, connected); msg["type"] != "sentiment_update" {
		t.Fatalf("connected subscriber missed broadcast: %v", msg)
	}
	select {
	case v := <-pending.writes:
		t.Fatalf("connecting subscriber received broadcast: %v", v)
	default:
	}
}

func TestStreamBroadcastsUpdates(t *testing.T) {
	h := NewHub(&stubProvider{sentiments: map[string]domain.TokenSentiment{
		"DOGE": {Token: "DOGE", SentimentScore: 70},
	}})
	conn, done := startConnection(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	streamDone := make(chan struct{})
	go func() {
		h.Stream(ctx, 10*time.Millisecond)
		close(streamDone)
	}()

	msg := expectWrite(t, conn)
	if msg["type"] != "sentiment_update" {
		t.Fatalf("expected sentiment_update, got %v", msg)
	}
	if msg["connection_count"] != 1 {
		t.Fatalf("connection_count = %v, want 1", msg["connection_count"])
	}

	cancel()
	<-streamDone
	close(conn.inbound)
	<-done
}
