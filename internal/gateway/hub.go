package gateway

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/protocol"
)

// Client is one connected session as the hub sees it. SendBytes
// reports false when the message could not be queued (session closed
// or its buffer full).
type Client interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte) bool
	Close()
}

// SubscriptionRegistry is the slice of the registry the hub mutates.
type SubscriptionRegistry interface {
	Subscribe(symbol, sessionID string) []string
	Unsubscribe(symbol, sessionID string) []string
	RemoveSession(sessionID string)
}

// SnapshotReader hands out the latest broadcast payload per symbol.
type SnapshotReader interface {
	GetQuote(ctx context.Context, symbol string) ([]byte, bool, error)
}

// Hub is the session gateway: it owns the session table, translates
// wire commands into registry calls, and exposes the delivery
// primitive the broadcast scheduler drives. Acknowledgements go to the
// requesting session only, never broadcast.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Client

	registry SubscriptionRegistry
	store    SnapshotReader
	logger   *zap.Logger
}

func NewHub(reg SubscriptionRegistry, store SnapshotReader, logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]Client),
		registry: reg,
		store:    store,
		logger:   logger,
	}
}

// Register adds a freshly connected session to the table.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[client.ID()] = client
}

// HandleCommand dispatches one decoded client request.
func (h *Hub) HandleCommand(client Client, req protocol.Request) {
	switch req.Type {
	case protocol.TypeSubscribe:
		h.onSubscribe(client, req.Symbol)
	case protocol.TypeUnsubscribe:
		h.onUnsubscribe(client, req.Symbol)
	default:
		client.SendJSON(protocol.NewError("unknown message type: " + req.Type))
	}
}

func (h *Hub) onSubscribe(client Client, symbol string) {
	if symbol == "" {
		client.SendJSON(protocol.NewError("invalid request: missing symbol"))
		return
	}

	clients := h.registry.Subscribe(symbol, client.ID())
	h.logger.Info("Session subscribed",
		zap.String("session_id", client.ID()), zap.String("symbol", symbol))

	client.SendJSON(protocol.Ack{
		Type:    protocol.TypeSubscriptionSuccess,
		Symbol:  symbol,
		Clients: clients,
	})

	// Prime the new subscriber with the latest quote, off the request
	// path so a slow store cannot block the read pump.
	go func() {
		payload, ok, err := h.store.GetQuote(context.Background(), symbol)
		if err != nil {
			h.logger.Warn("Snapshot read failed", zap.String("symbol", symbol), zap.Error(err))
			return
		}
		if ok {
			client.SendBytes(payload)
		}
	}()
}

func (h *Hub) onUnsubscribe(client Client, symbol string) {
	if symbol == "" {
		client.SendJSON(protocol.NewError("invalid request: missing symbol"))
		return
	}

	clients := h.registry.Unsubscribe(symbol, client.ID())
	h.logger.Info("Session unsubscribed",
		zap.String("session_id", client.ID()), zap.String("symbol", symbol))

	client.SendJSON(protocol.Ack{
		Type:    protocol.TypeUnsubscriptionSuccess,
		Symbol:  symbol,
		Clients: clients,
	})
}

// Disconnect removes the session from every symbol it holds and drops
// it from the table. Called exactly once, when the read pump exits.
func (h *Hub) Disconnect(client Client) {
	h.registry.RemoveSession(client.ID())

	h.mu.Lock()
	delete(h.sessions, client.ID())
	h.mu.Unlock()

	client.Close()
	h.logger.Info("Session disconnected", zap.String("session_id", client.ID()))
}

// Deliver pushes one broadcast payload to one session. False means the
// session is gone or its send buffer is full; the caller treats either
// as a skipped delivery.
func (h *Hub) Deliver(sessionID string, payload []byte) bool {
	h.mu.RLock()
	client, ok := h.sessions[sessionID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	return client.SendBytes(payload)
}
