package asset

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTransfer(t *testing.T) {
	now := time.Now()

	newRecord := func() *Asset {
		return &Asset{
			ID:    "T-1",
			Owner: "seller.example",
			Approvals: map[string]uint64{
				"market.example": 7,
				"broker.example": 3,
			},
			NextApprovalID: 8,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	t.Run("authorized", func(t *testing.T) {
		as := newRecord()

		outcome, err := Transfer(context.Background(), as, "market.example", 7,
			"buyer.example", now)
		if err != nil {
			t.Fatalf("Transfer failed : %v", err)
		}

		if outcome.PreviousOwner != "seller.example" {
			t.Errorf("Wrong previous owner : %s", outcome.PreviousOwner)
		}

		// Every approval is invalidated, the invoking spender included.
		want := []string{"broker.example", "market.example"}
		if diff := cmp.Diff(want, outcome.InvalidatedSpenders); diff != "" {
			t.Errorf("Invalidated spenders mismatch (-want +got):\n%s", diff)
		}

		if as.Owner != "buyer.example" {
			t.Errorf("Ownership not swapped : %s", as.Owner)
		}
		if len(as.Approvals) != 0 {
			t.Errorf("Approvals not cleared : %v", as.Approvals)
		}
	})

	t.Run("staleApprovalID", func(t *testing.T) {
		as := newRecord()

		if _, err := Transfer(context.Background(), as, "market.example", 6,
			"buyer.example", now); err != ErrUnauthorized {
			t.Fatalf("Stale approval id should be unauthorized : %v", err)
		}

		if as.Owner != "seller.example" || len(as.Approvals) != 2 {
			t.Errorf("Rejected transfer modified the record")
		}
	})

	t.Run("unknownCaller", func(t *testing.T) {
		as := newRecord()

		if _, err := Transfer(context.Background(), as, "stranger.example", 0,
			"buyer.example", now); err != ErrUnauthorized {
			t.Fatalf("Unknown caller should be unauthorized : %v", err)
		}

		if as.Owner != "seller.example" || len(as.Approvals) != 2 {
			t.Errorf("Rejected transfer modified the record")
		}
	})

	t.Run("recipientCanBeCaller", func(t *testing.T) {
		as := newRecord()

		// A spender buying for itself names itself as recipient.
		outcome, err := Transfer(context.Background(), as, "market.example", 7,
			"market.example", now)
		if err != nil {
			t.Fatalf("Transfer failed : %v", err)
		}
		if as.Owner != "market.example" {
			t.Errorf("Ownership not swapped : %s", as.Owner)
		}
		if outcome.PreviousOwner != "seller.example" {
			t.Errorf("Wrong previous owner : %s", outcome.PreviousOwner)
		}
	})
}
