package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/internal/settlement"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/pkg/errors"
)

// Settlement handles inbound payment notifications.
type Settlement struct {
	Service *settlement.Service
}

type acceptedResponse struct {
	Accepted uint64 `json:"accepted"`
}

// Notify is invoked by the payment contract when it moves value to the
// registry with an attached settlement message. The response tells the
// payment protocol how much of the amount was accepted; the protocol refunds
// the rest, so a failed call claims nothing.
func (h *Settlement) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := node.ContextValues(ctx)

	var note settlement.Notification
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest, err.Error()))
		return
	}

	if len(note.Sender) == 0 || len(note.PaymentContract) == 0 {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest,
			"missing sender or payment contract"))
		return
	}

	logger.Verbose(ctx, "%s : Payment notification from %s for %d", v.TraceID,
		note.Sender, note.Amount)

	accepted, err := h.Service.Settle(ctx, &note)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, acceptedResponse{Accepted: accepted})
}
