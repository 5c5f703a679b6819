package handlers

import (
	"net/http"

	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/internal/settlement"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// API constructs the router for the registry daemon.
func API(masterDB *db.DB, registry string, locks *node.AssetLock,
	service *settlement.Service) http.Handler {

	a := &Assets{
		MasterDB: masterDB,
		Registry: registry,
		Locks:    locks,
	}
	s := &Settlement{
		Service: service,
	}
	h := &Health{
		MasterDB: masterDB,
	}

	r := chi.NewRouter()
	r.Use(requestValues)

	r.Get("/health", h.Check)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/settlement", s.Notify)

		r.Post("/assets", a.Mint)
		r.Get("/assets/{id}", a.Get)
		r.Post("/assets/{id}/approvals", a.Approve)
		r.Delete("/assets/{id}/approvals/{spender}", a.Revoke)
	})

	return r
}

// requestValues stamps each request with a trace id and a single consistent
// timestamp, then logs its completion.
func requestValues(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := node.ContextWithValues(r.Context())
		v := node.ContextValues(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))

		logger.Verbose(ctx, "%s : %s %s", v.TraceID, r.Method, r.URL.Path)
	})
}

// Health reports daemon liveness.
type Health struct {
	MasterDB *db.DB
}

type healthResponse struct {
	Status string `json:"status"`
}

// Check verifies the storage backend is reachable.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.MasterDB.StatusCheck(ctx); err != nil {
		respond(ctx, w, http.StatusServiceUnavailable, healthResponse{Status: "storage unavailable"})
		return
	}

	respond(ctx, w, http.StatusOK, healthResponse{Status: "ok"})
}
