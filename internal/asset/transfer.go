package asset

import (
	"context"
	"sort"
	"time"

	"go.opencensus.io/trace"
)

// Transfer verifies the authorized caller's approval and swaps ownership of
// the asset record.
//
// The caller verified for authorization and the recipient who ends up owning
// the asset are two distinct parties. A marketplace acting as an approved
// spender triggers the move, but the asset is delivered to the buyer it
// names.
//
// On success the owner is reassigned to recipient, the entire approval map is
// cleared, and the previous owner plus the cleared spender set are returned.
// The record is modified in place; persisting it is the caller's
// responsibility, so a settlement that cannot complete leaves no durable
// mutation.
func Transfer(ctx context.Context, as *Asset, authorizedCaller string, approvalID uint64,
	recipient string, now time.Time) (*TransferOutcome, error) {

	_, span := trace.StartSpan(ctx, "internal.asset.Transfer")
	defer span.End()

	active, exists := as.Approvals[authorizedCaller]
	if !exists || active != approvalID {
		return nil, ErrUnauthorized
	}

	outcome := TransferOutcome{
		PreviousOwner:       as.Owner,
		InvalidatedSpenders: make([]string, 0, len(as.Approvals)),
	}
	for spender := range as.Approvals {
		outcome.InvalidatedSpenders = append(outcome.InvalidatedSpenders, spender)
	}
	sort.Strings(outcome.InvalidatedSpenders)

	as.Owner = recipient
	as.Approvals = make(map[string]uint64)
	as.UpdatedAt = now

	return &outcome, nil
}
