package settlement

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedRequest occurs when the message attached to an inbound payment
// does not decode into a settlement request.
var ErrMalformedRequest = errors.New("Malformed settlement request")

// Request is the settlement message a marketplace attaches to its payment:
// which approval it is exercising, which asset is being paid for, and who
// ends up owning it.
type Request struct {
	AuthorizationToken uint64 `json:"authorization_token"`
	Asset              string `json:"asset"`
	Recipient          string `json:"recipient"`
}

// Notification is the inbound payment notification from the payment
// contract.
type Notification struct {
	// Sender is the immediate caller that moved value here, typically a
	// marketplace acting as an approved spender.
	Sender string `json:"sender"`

	// PaymentContract identifies the contract holding the received value. The
	// forwarding instruction is addressed to it.
	PaymentContract string `json:"payment_contract"`

	// Amount received, in the smallest denomination of the payment type.
	Amount uint64 `json:"amount"`

	// Budget is the compute budget remaining for this call.
	Budget uint64 `json:"budget"`

	// Msg is the raw settlement message.
	Msg string `json:"msg"`
}

// DecodeRequest decodes the raw message into a Request. The message must be
// a JSON record with exactly the three required fields; anything absent,
// extra, or wrong-typed is rejected before any state is touched.
func DecodeRequest(msg string) (*Request, error) {
	var raw struct {
		AuthorizationToken *uint64 `json:"authorization_token"`
		Asset              *string `json:"asset"`
		Recipient          *string `json:"recipient"`
	}

	dec := json.NewDecoder(strings.NewReader(msg))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(ErrMalformedRequest, err.Error())
	}
	if dec.More() {
		return nil, errors.Wrap(ErrMalformedRequest, "trailing data")
	}

	if raw.AuthorizationToken == nil {
		return nil, errors.Wrap(ErrMalformedRequest, "missing authorization_token")
	}
	if raw.Asset == nil || len(*raw.Asset) == 0 {
		return nil, errors.Wrap(ErrMalformedRequest, "missing asset")
	}
	if raw.Recipient == nil || len(*raw.Recipient) == 0 {
		return nil, errors.Wrap(ErrMalformedRequest, "missing recipient")
	}

	return &Request{
		AuthorizationToken: *raw.AuthorizationToken,
		Asset:              *raw.Asset,
		Recipient:          *raw.Recipient,
	}, nil
}
