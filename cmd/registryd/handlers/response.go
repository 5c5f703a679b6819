package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/payment"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/internal/settlement"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/pkg/errors"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// respond writes a JSON response body with the given status.
func respond(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(ctx, "Failed to encode response : %s", err)
	}
}

// respondError maps the error taxonomy to stable codes and statuses. Anything
// unrecognized is an internal error and is not leaked to the caller.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	v := node.ContextValues(ctx)

	switch errors.Cause(err) {
	case settlement.ErrMalformedRequest:
		respond(ctx, w, http.StatusBadRequest, errorResponse{Code: "malformed_request", Error: err.Error()})
	case asset.ErrNotFound:
		respond(ctx, w, http.StatusNotFound, errorResponse{Code: "asset_not_found", Error: err.Error()})
	case asset.ErrUnauthorized:
		respond(ctx, w, http.StatusForbidden, errorResponse{Code: "unauthorized", Error: err.Error()})
	case payment.ErrResourceExhausted:
		respond(ctx, w, http.StatusUnprocessableEntity, errorResponse{Code: "resource_exhausted", Error: err.Error()})
	case asset.ErrExists:
		respond(ctx, w, http.StatusConflict, errorResponse{Code: "asset_exists", Error: err.Error()})
	default:
		logger.Error(ctx, "%s : Internal error : %s", v.TraceID, err)
		respond(ctx, w, http.StatusInternalServerError, errorResponse{Code: "internal", Error: "internal error"})
	}
}
