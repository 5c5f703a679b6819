package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/deposit"
	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/internal/settlement"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Assets handles registry operations: minting, lookup, and approval
// management.
type Assets struct {
	MasterDB *db.DB
	Registry string
	Locks    *node.AssetLock
}

// Mint registers a new asset.
func (h *Assets) Mint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := node.ContextValues(ctx)

	var nu asset.NewAsset
	if err := json.NewDecoder(r.Body).Decode(&nu); err != nil {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest, err.Error()))
		return
	}
	if len(nu.ID) == 0 || len(nu.Owner) == 0 {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest, "missing id or owner"))
		return
	}

	mu := h.Locks.Get(nu.ID)
	mu.Lock()
	defer mu.Unlock()

	a, err := asset.Create(ctx, h.MasterDB, h.Registry, &nu, v.Now)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, a)
}

// Get fetches an asset record.
func (h *Assets) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := asset.Retrieve(ctx, h.MasterDB, h.Registry, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, a)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Payer   string `json:"payer"`
	Deposit uint64 `json:"deposit"`
}

type approveResponse struct {
	ApprovalID uint64 `json:"approval_id"`
}

// Approve grants a spender an approval on the asset, escrowing the supplied
// storage deposit against it.
func (h *Assets) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := node.ContextValues(ctx)
	assetID := chi.URLParam(r, "id")

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest, err.Error()))
		return
	}
	if len(req.Spender) == 0 {
		respondError(ctx, w, errors.Wrap(settlement.ErrMalformedRequest, "missing spender"))
		return
	}
	if len(req.Payer) == 0 {
		// The spender funds its own approval record unless told otherwise.
		req.Payer = req.Spender
	}

	mu := h.Locks.Get(assetID)
	mu.Lock()
	defer mu.Unlock()

	approvalID, err := asset.Approve(ctx, h.MasterDB, h.Registry, assetID, req.Spender, v.Now)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Deposit > 0 {
		if err := deposit.Escrow(ctx, h.MasterDB, h.Registry, &deposit.Deposit{
			Asset:     assetID,
			Spender:   req.Spender,
			Payer:     req.Payer,
			Amount:    req.Deposit,
			CreatedAt: v.Now,
		}); err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	respond(ctx, w, http.StatusCreated, approveResponse{ApprovalID: approvalID})
}

// Revoke removes a spender's approval and reclaims its deposit.
func (h *Assets) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := node.ContextValues(ctx)
	assetID := chi.URLParam(r, "id")
	spender := chi.URLParam(r, "spender")

	mu := h.Locks.Get(assetID)
	mu.Lock()
	defer mu.Unlock()

	if err := asset.Revoke(ctx, h.MasterDB, h.Registry, assetID, spender, v.Now); err != nil {
		respondError(ctx, w, err)
		return
	}

	deposit.Reclaim(ctx, h.MasterDB, h.Registry, assetID, []string{spender}, v.Now)

	respond(ctx, w, http.StatusNoContent, nil)
}
