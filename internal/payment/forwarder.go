package payment

import (
	"context"

	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// ErrResourceExhausted occurs when the remaining budget is not enough to
// cover the reservation for the call's own remaining work.
var ErrResourceExhausted = errors.New("Insufficient budget to forward payment")

// Instruction tells a payment contract to move value to a recipient. It is
// issued once per settled sale and never awaited.
type Instruction struct {
	PaymentContract string `json:"-"`
	Recipient       string `json:"recipient"`
	Amount          uint64 `json:"amount"`
	Memo            string `json:"memo,omitempty"`
	Budget          uint64 `json:"budget"`
}

// Publisher sends one-way messages to an external contract. Sends are
// at-most-once with no confirmation.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// Forwarder issues outbound transfer instructions to payment contracts under
// a budget ceiling.
type Forwarder struct {
	publisher Publisher
	reserve   uint64
}

// NewForwarder returns a Forwarder that holds back reserve budget units from
// every forwarded instruction.
func NewForwarder(publisher Publisher, reserve uint64) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		reserve:   reserve,
	}
}

// Reserve computes the budget left for the outbound request after holding
// back the fixed reservation. The check is pure; nothing is sent here.
func (f *Forwarder) Reserve(budget uint64) (uint64, error) {
	if budget < f.reserve {
		return 0, ErrResourceExhausted
	}
	return budget - f.reserve, nil
}

// Forward publishes one transfer instruction to the payment contract. The
// instruction is fire and forget: no handle is retained and the outcome of
// the transfer is never observed by the registry. A local publish failure is
// logged, not returned, because the sale is already final by the time this
// runs.
func (f *Forwarder) Forward(ctx context.Context, instr Instruction) {
	ctx, span := trace.StartSpan(ctx, "internal.payment.Forward")
	defer span.End()

	if err := f.publisher.Publish(ctx, instr.PaymentContract, "transfer", instr); err != nil {
		logger.Error(ctx, "Failed to issue payment forward of %d to %s via %s : %s",
			instr.Amount, instr.Recipient, instr.PaymentContract, err)
		return
	}

	logger.Verbose(ctx, "Forwarded %d to %s via %s", instr.Amount, instr.Recipient,
		instr.PaymentContract)
}
