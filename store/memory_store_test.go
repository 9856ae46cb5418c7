package store

import (
	"context"
	"testing"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
)

func TestMemoryListPaymentsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ids := []string{"CCCC0003", "AAAA0001", "DDDD0004", "BBBB0002", "EEEE0005"}
	offsets := []int{3, 1, 4, 2, 5}
	for i, id := range ids {
		p := types.Payment{
			PaymentID: id,
			UserID:    1,
			Plan:      types.PlanWeek,
			Method:    types.MethodCard,
			Status:    types.PaymentAwaitingConfirmation,
			CreatedAt: t0.Add(time.Duration(offsets[i]) * time.Minute),
		}
		if _, err := s.CreatePayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	// Map iteration order varies between runs; repeat to catch it.
	want := []string{"AAAA0001", "BBBB0002", "CCCC0003", "DDDD0004", "EEEE0005"}
	for round := 0; round < 20; round++ {
		got, err := s.ListPayments(ctx, types.PaymentAwaitingConfirmation)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d payments, want %d", len(got), len(want))
		}
		for i, p := range got {
			if p.PaymentID != want[i] {
				t.Fatalf("round %d position %d: got %s, want %s", round, i, p.PaymentID, want[i])
			}
		}
	}
}
