package asset

import (
	"time"
)

// Asset is the state record for a registered non-fungible asset.
type Asset struct {
	ID             string            `json:"id"`
	Owner          string            `json:"owner"`
	Metadata       string            `json:"metadata"`
	Approvals      map[string]uint64 `json:"approvals"` // spender -> approval id
	NextApprovalID uint64            `json:"next_approval_id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewAsset defines what we require when minting an Asset record.
type NewAsset struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Metadata string `json:"metadata"`
}

// TransferOutcome is returned by Transfer. It is produced once and consumed
// once by the deposit reclaimer.
type TransferOutcome struct {
	PreviousOwner string

	// InvalidatedSpenders holds every spender whose approval was cleared by
	// the transfer, including the invoking spender.
	InvalidatedSpenders []string
}
