package testutils

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/protocol"
)

// MockClient simulates a connected websocket session
type MockClient struct {
	IDVal    string
	Mu       sync.Mutex
	Acks     []protocol.Ack
	Errors   []protocol.ErrorMessage
	RawBytes [][]byte
	Closed   bool
	Reject   bool // SendBytes reports failure when set
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	switch msg := v.(type) {
	case protocol.Ack:
		m.Acks = append(m.Acks, msg)
	case protocol.ErrorMessage:
		m.Errors = append(m.Errors, msg)
	default:
		if b, err := json.Marshal(v); err == nil {
			m.RawBytes = append(m.RawBytes, b)
		}
	}
}

func (m *MockClient) SendBytes(b []byte) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Reject {
		return false
	}
	m.RawBytes = append(m.RawBytes, b)
	return true
}

func (m *MockClient) LastAck() (protocol.Ack, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Acks) == 0 {
		return protocol.Ack{}, false
	}
	return m.Acks[len(m.Acks)-1], true
}

func (m *MockClient) LastError() (protocol.ErrorMessage, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Errors) == 0 {
		return protocol.ErrorMessage{}, false
	}
	return m.Errors[len(m.Errors)-1], true
}

func (m *MockClient) RawCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.RawBytes)
}

// MockQuoteStore simulates the snapshot cache
type MockQuoteStore struct {
	Mu     sync.Mutex
	Quotes map[string][]byte
	SetErr error
	GetErr error
}

func NewMockQuoteStore() *MockQuoteStore {
	return &MockQuoteStore{Quotes: make(map[string][]byte)}
}

func (m *MockQuoteStore) SetQuote(_ context.Context, symbol string, payload []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Quotes[symbol] = payload
	return nil
}

func (m *MockQuoteStore) GetQuote(_ context.Context, symbol string) ([]byte, bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	payload, ok := m.Quotes[symbol]
	return payload, ok, nil
}

func (m *MockQuoteStore) Close() error { return nil }

// MockDeliverer records every delivery attempt per session
type MockDeliverer struct {
	Mu        sync.Mutex
	Delivered map[string][][]byte
	FailFor   map[string]bool
}

func NewMockDeliverer() *MockDeliverer {
	return &MockDeliverer{
		Delivered: make(map[string][][]byte),
		FailFor:   make(map[string]bool),
	}
}

func (m *MockDeliverer) Deliver(sessionID string, payload []byte) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailFor[sessionID] {
		return false
	}
	m.Delivered[sessionID] = append(m.Delivered[sessionID], payload)
	return true
}

func (m *MockDeliverer) CountFor(sessionID string) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Delivered[sessionID])
}

// MockPublisher records feed publishes
type MockPublisher struct {
	Mu        sync.Mutex
	Published map[string][][]byte
	Err       error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Published: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(_ context.Context, symbol string, payload []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published[symbol] = append(m.Published[symbol], payload)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockRand cycles through fixed values for deterministic quotes
type MockRand struct {
	Mu   sync.Mutex
	Vals []float64
	i    int
}

func (m *MockRand) Float64() float64 {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Vals) == 0 {
		return 0
	}
	v := m.Vals[m.i%len(m.Vals)]
	m.i++
	return v
}
