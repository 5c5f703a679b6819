package deposit

import (
	"time"
)

// Deposit is value escrowed to cover the storage footprint of one approval
// record. It is keyed by asset and spender and returned to the payer when the
// approval is invalidated.
type Deposit struct {
	Asset     string    `json:"asset"`
	Spender   string    `json:"spender"`
	Payer     string    `json:"payer"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Refund is the accumulated refundable balance owed to a payer. Paying it out
// is the payment collaborator's concern, not the registry's.
type Refund struct {
	Payer     string    `json:"payer"`
	Amount    uint64    `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reclaim stages, recorded when a reclaim fails partway so the retry knows
// where to resume.
const (
	StageRemove = "remove" // deposit record still present, full reclaim needed
	StageCredit = "credit" // deposit removed, refund credit still owed
)

// FailedReclaim is a ledger entry for a reclaim that could not complete. The
// settled transfer is never unwound for these; they are retried by the
// reconcile job and surfaced for manual follow up if they keep failing.
type FailedReclaim struct {
	ID       string    `json:"id"`
	Asset    string    `json:"asset"`
	Spender  string    `json:"spender"`
	Payer    string    `json:"payer"`
	Amount   uint64    `json:"amount"`
	Stage    string    `json:"stage"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}
