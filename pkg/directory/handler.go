package directory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/poolctl/cognito-admin/pkg/poolmfa"
)

// Handler exposes the user directory listing.
type Handler struct {
	service *Service
	pool    *poolmfa.Service
}

// NewHandler creates a directory handler.
func NewHandler(service *Service, pool *poolmfa.Service) *Handler {
	return &Handler{service: service, pool: pool}
}

// RegisterRoutes registers the listing route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
}

// ListUsers handles the directory listing, optionally filtered by the
// searchTerm query parameter and decorated with per-user MFA status.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Search(r.Context(), r.URL.Query().Get("searchTerm"))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}

	cfg, err := h.pool.GetConfig(r.Context())
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}

	entries, err := h.service.WithMFAStatus(r.Context(), users, cfg.Mode)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, entries)
}
