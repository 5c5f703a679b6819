package settlement

import (
	"context"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/deposit"
	"github.com/assetized/asset-registry/internal/payment"
	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Service settles asset sales. One call per inbound payment notification:
// verify the authorization the message names, swap ownership, reclaim
// deposits from invalidated approvals, and forward the received payment to
// the seller.
type Service struct {
	DB        *db.DB
	Registry  string
	Locks     *node.AssetLock
	Forwarder *payment.Forwarder
}

// Settle processes one inbound payment notification and returns the amount
// accepted. The full received amount is always claimed on success; the
// payment protocol refunds anything a failed call leaves unclaimed.
//
// Order is load bearing: validation precedes any mutation, the ownership
// swap precedes payment forwarding, and nothing after the swap is allowed to
// undo it. The budget reservation is evaluated after the transfer engine
// succeeds and before the record is persisted, so a call that cannot fund
// forwarding leaves no mutation behind.
func (s *Service) Settle(ctx context.Context, note *Notification) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "internal.settlement.Settle")
	defer span.End()

	v := node.ContextValues(ctx)

	req, err := DecodeRequest(note.Msg)
	if err != nil {
		logger.Warn(ctx, "%s : Settlement request invalid : %s", v.TraceID, err)
		return 0, err
	}

	outcome, remaining, err := s.settleLocked(ctx, note, req)
	if err != nil {
		return 0, err
	}

	// Ownership is final. Forwarding is fire and forget from here.
	s.Forwarder.Forward(ctx, payment.Instruction{
		PaymentContract: note.PaymentContract,
		Recipient:       outcome.PreviousOwner,
		Amount:          note.Amount,
		Budget:          remaining,
	})

	logger.Info(ctx, "%s : Settled sale : caller=%s amount=%d payment=%s seller=%s buyer=%s",
		v.TraceID, note.Sender, note.Amount, note.PaymentContract, outcome.PreviousOwner,
		req.Recipient)

	return note.Amount, nil
}

// settleLocked performs the serialized portion of a settlement while holding
// the asset's lock: lookup, authorization check, ownership swap, persist,
// deposit reclaim.
func (s *Service) settleLocked(ctx context.Context, note *Notification,
	req *Request) (*asset.TransferOutcome, uint64, error) {

	v := node.ContextValues(ctx)

	mu := s.Locks.Get(req.Asset)
	mu.Lock()
	defer mu.Unlock()

	as, err := asset.Retrieve(ctx, s.DB, s.Registry, req.Asset)
	if err != nil {
		if errors.Cause(err) == asset.ErrNotFound {
			logger.Warn(ctx, "%s : Settlement for unknown asset %s", v.TraceID, req.Asset)
		}
		return nil, 0, err
	}

	outcome, err := asset.Transfer(ctx, as, note.Sender, req.AuthorizationToken,
		req.Recipient, v.Now)
	if err != nil {
		logger.Warn(ctx, "%s : Transfer rejected for asset %s caller %s : %s",
			v.TraceID, req.Asset, note.Sender, err)
		return nil, 0, err
	}

	// The reservation guards only the forwarding step, but it runs before the
	// commit so a budget failure discards the whole call.
	remaining, err := s.Forwarder.Reserve(note.Budget)
	if err != nil {
		logger.Warn(ctx, "%s : Budget %d below forward reserve for asset %s",
			v.TraceID, note.Budget, req.Asset)
		return nil, 0, err
	}

	if err := asset.Save(ctx, s.DB, s.Registry, as); err != nil {
		return nil, 0, errors.Wrap(err, "Failed to save transferred asset")
	}

	// Best effort after the commit. Reclaim records its own failures.
	deposit.Reclaim(ctx, s.DB, s.Registry, req.Asset, outcome.InvalidatedSpenders, v.Now)

	return outcome, remaining, nil
}
