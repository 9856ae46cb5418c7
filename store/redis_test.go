package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

func newTestRedis(t *testing.T) *RedisClient {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	prefix := fmt.Sprintf("neural_bot_test_%d", time.Now().UnixNano())
	rdb, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_TEST_PASSWORD"), 0, prefix)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisPaymentCache(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	cache := NewRedisPaymentCache(rdb, 1)

	if _, err := cache.GetPayment(ctx, "ABCD1234"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("miss: got %v, want ErrNotFound", err)
	}
	p := &types.Payment{PaymentID: "ABCD1234", UserID: 7, Plan: types.PlanMonth, Amount: 45000,
		Method: types.MethodClick, Status: types.PaymentAwaitingConfirmation}
	if err := cache.SetPayment(ctx, p); err != nil {
		t.Fatalf("SetPayment: %v", err)
	}
	got, err := cache.GetPayment(ctx, "ABCD1234")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if got.UserID != 7 || got.Status != types.PaymentAwaitingConfirmation {
		t.Errorf("got %+v", got)
	}
	if err := cache.DeletePayment(ctx, "ABCD1234"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.GetPayment(ctx, "ABCD1234"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestRedisHistoryStoreKeepsWindow(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	h := NewRedisHistoryStore(rdb, 1, 4)

	for i := 0; i < 3; i++ {
		err := h.Append(ctx, 1,
			types.ChatMessage{Role: types.RoleUser, Content: fmt.Sprintf("q%d", i)},
			types.ChatMessage{Role: types.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := h.History(ctx, 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 4 || got[0].Content != "q1" || got[3].Content != "a2" {
		t.Fatalf("got %+v", got)
	}
	if err := h.Clear(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if got, _ := h.History(ctx, 1); len(got) != 0 {
		t.Errorf("after clear: %+v", got)
	}
}

func TestMemoryHistoryStoreKeepsWindow(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistoryStore(3)
	for i := 0; i < 5; i++ {
		_ = h.Append(ctx, 1, types.ChatMessage{Role: types.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	got, _ := h.History(ctx, 1)
	if len(got) != 3 || got[0].Content != "m2" || got[2].Content != "m4" {
		t.Fatalf("got %+v", got)
	}

	got[0].Content = "changed"
	again, _ := h.History(ctx, 1)
	if again[0].Content != "m2" {
		t.Error("History must return a copy")
	}

	_ = h.Clear(ctx, 1)
	if got, _ := h.History(ctx, 1); len(got) != 0 {
		t.Errorf("after clear: %+v", got)
	}
	if got, _ := h.History(ctx, 2); len(got) != 0 {
		t.Errorf("unknown user: %+v", got)
	}
}
