package poolmfa

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Handler exposes the pool MFA policy over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a pool policy handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the pool policy routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pool/mfa", func(r chi.Router) {
		r.Get("/", h.GetConfig)
		r.Post("/", h.SetConfig)
	})
}

// GetConfig handles the request for the current pool MFA policy.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfig(r.Context())
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, cfg)
}

// SetConfig handles the request to change the pool MFA mode.
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var request struct {
		MFAConfiguration string `json:"mfaConfiguration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.service.SetConfig(r.Context(), request.MFAConfiguration); err != nil {
		status := http.StatusInternalServerError
		var invalid ErrInvalidMode
		if errors.As(err, &invalid) {
			status = http.StatusBadRequest
		}
		render.Status(r, status)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}
