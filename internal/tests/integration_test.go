package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"go.uber.org/zap"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/gateway"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/quote"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/registry"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/repository"
	"github.com/bryanmjl/Real-Time-Quote-Server/internal/scheduler"
)

type wireMessage struct {
	Type    string   `json:"type"`
	Symbol  string   `json:"symbol"`
	Clients []string `json:"clients"`
	Message string   `json:"message"`
	Open    float64  `json:"open"`
	High    float64  `json:"high"`
	Low     float64  `json:"low"`
	Bid     float64  `json:"bid"`
	Ask     float64  `json:"ask"`
}

func startServer(t *testing.T) *httptest.Server {
	reg := registry.New()
	store := repository.NewMemoryStore()
	hub := gateway.NewHub(reg, store, zap.NewNop())
	gen := quote.NewGenerator(nil)

	sched := scheduler.New(zap.NewNop(), reg, gen, hub, store, nil, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)
	t.Cleanup(cancel)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		client := gateway.NewClient(conn, hub, zap.NewNop())
		client.Start()
	}))
	t.Cleanup(server.Close)

	return server
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(serverURL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	return wsConn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Invalid JSON from server: %v (%s)", err, raw)
	}
	return msg
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) wireMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msg := readMessage(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("Never received a %s message", msgType)
	return wireMessage{}
}

func TestEndToEnd_SubscribeQuoteUnsubscribe(t *testing.T) {
	server := startServer(t)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","symbol":"AAPL"}`))

	// a tick may interleave between the registry mutation and the ack,
	// so quote_change frames can arrive first
	ack := readUntil(t, wsConn, "subscription_success")
	if ack.Symbol != "AAPL" {
		t.Fatalf("Expected subscription_success for AAPL, got %+v", ack)
	}
	if len(ack.Clients) != 1 {
		t.Errorf("Expected exactly one subscriber, got %v", ack.Clients)
	}

	q := readUntil(t, wsConn, "quote_change")
	if q.Symbol != "AAPL" {
		t.Errorf("Expected quote for AAPL, got %q", q.Symbol)
	}
	for name, price := range map[string]float64{
		"open": q.Open, "high": q.High, "low": q.Low, "bid": q.Bid, "ask": q.Ask,
	} {
		if price < 100.0 || price > 200.0 {
			t.Errorf("Field %s out of range: %f", name, price)
		}
	}

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unsubscribe","symbol":"AAPL"}`))

	ack = readUntil(t, wsConn, "unsubscription_success")
	if ack.Symbol != "AAPL" || len(ack.Clients) != 0 {
		t.Errorf("Expected empty remaining list after unsubscribe, got %+v", ack)
	}
}

func TestEndToEnd_TwoSubscribersShareQuotes(t *testing.T) {
	server := startServer(t)

	connA := connectWS(t, server.URL)
	defer connA.Close()
	connB := connectWS(t, server.URL)
	defer connB.Close()

	connA.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","symbol":"MSFT"}`))
	readUntil(t, connA, "subscription_success")

	connB.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","symbol":"MSFT"}`))
	ack := readUntil(t, connB, "subscription_success")
	if len(ack.Clients) != 2 {
		t.Errorf("Second subscriber should see both sessions in the ack, got %v", ack.Clients)
	}

	if q := readUntil(t, connA, "quote_change"); q.Symbol != "MSFT" {
		t.Errorf("Session A expected MSFT quotes, got %q", q.Symbol)
	}
	if q := readUntil(t, connB, "quote_change"); q.Symbol != "MSFT" {
		t.Errorf("Session B expected MSFT quotes, got %q", q.Symbol)
	}
}

func TestEndToEnd_InvalidJSON(t *testing.T) {
	server := startServer(t)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subsc`))

	msg := readMessage(t, wsConn)
	if msg.Type != "error" {
		t.Errorf("Expected error for malformed JSON, got %+v", msg)
	}
}

func TestEndToEnd_MissingSymbol(t *testing.T) {
	server := startServer(t)
	wsConn := connectWS(t, server.URL)
	defer wsConn.Close()

	wsConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`))

	msg := readMessage(t, wsConn)
	if msg.Type != "error" || !strings.Contains(msg.Message, "symbol") {
		t.Errorf("Expected missing-symbol error, got %+v", msg)
	}
}

func TestEndToEnd_DisconnectCleansUp(t *testing.T) {
	server := startServer(t)

	connA := connectWS(t, server.URL)
	connA.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","symbol":"TSLA"}`))
	readUntil(t, connA, "subscription_success")
	connA.Close()

	// a second session keeps receiving after the first vanished
	connB := connectWS(t, server.URL)
	defer connB.Close()
	connB.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","symbol":"TSLA"}`))
	readUntil(t, connB, "subscription_success")

	if q := readUntil(t, connB, "quote_change"); q.Symbol != "TSLA" {
		t.Errorf("Broadcast should continue for remaining sessions, got %+v", q)
	}
}
