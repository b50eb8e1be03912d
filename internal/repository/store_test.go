package repository_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bryanmjl/Real-Time-Quote-Server/internal/repository"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := store.GetQuote(ctx, "AAPL"); ok {
		t.Fatal("Expected miss for an unknown symbol")
	}

	if err := store.SetQuote(ctx, "AAPL", []byte("v1")); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}
	if err := store.SetQuote(ctx, "AAPL", []byte("v2")); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}

	payload, ok, err := store.GetQuote(ctx, "AAPL")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(payload, []byte("v2")) {
		t.Errorf("Expected latest payload v2, got %s", payload)
	}
}

func TestRedisStore_SetGet(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repository.NewRedisStore(rdb)
	ctx := context.Background()

	if _, ok, err := store.GetQuote(ctx, "AAPL"); ok || err != nil {
		t.Fatalf("Expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.SetQuote(ctx, "AAPL", []byte(`{"symbol":"AAPL"}`)); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}

	payload, ok, err := store.GetQuote(ctx, "AAPL")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(payload, []byte(`{"symbol":"AAPL"}`)) {
		t.Errorf("Unexpected payload: %s", payload)
	}

	// payloads expire instead of accumulating forever
	if mr.TTL("quote:AAPL") <= 0 {
		t.Error("Expected a TTL on the stored quote")
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
