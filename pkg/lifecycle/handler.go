package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/poolctl/cognito-admin/pkg/cognito"
	"github.com/poolctl/cognito-admin/pkg/poolmfa"
)

// Handler exposes the lifecycle operations over HTTP. Each route maps 1:1 to
// one service operation.
type Handler struct {
	service *Service
}

// NewHandler creates a lifecycle handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the user lifecycle routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/create", h.CreateUser)
		r.Post("/delete", h.DeleteUser)
		r.Post("/recreate", h.RecreateUser)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/set-password", h.SetPassword)
		r.Post("/enable", h.EnableUser)
		r.Post("/disable", h.DisableUser)
		r.Route("/mfa", func(r chi.Router) {
			r.Post("/enable", h.EnableMFA)
			r.Post("/disable", h.DisableMFA)
			r.Post("/status", h.MFAStatus)
			r.Post("/reset", h.BeginMFAReset)
			r.Post("/reset/complete", h.CompleteMFAReset)
		})
	})
}

type usernameRequest struct {
	Username string `json:"username"`
}

// CreateUser handles the request to create a user under mandatory-MFA policy.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		Company      string `json:"company"`
		TempPassword string `json:"tempPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Email == "" || request.TempPassword == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("email and tempPassword are required"))
		return
	}

	user, err := h.service.CreateUser(r.Context(), request.Email, request.Name, request.Company, request.TempPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"user": user, "tempPassword": request.TempPassword})
}

// DeleteUser handles the request to delete a user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.usernameAction(w, r, h.service.DeleteUser)
}

// RecreateUser handles the delete-and-recreate request.
func (h *Handler) RecreateUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username     string `json:"username"`
		TempPassword string `json:"tempPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Username == "" || request.TempPassword == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("username and tempPassword are required"))
		return
	}

	user, err := h.service.RecreateUser(r.Context(), request.Username, request.TempPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"user": user})
}

// ResetPassword handles the request to set a temporary password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username    string `json:"username"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Username == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("username is required"))
		return
	}

	if err := h.service.ForcePasswordReset(r.Context(), request.Username, request.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

// SetPassword handles the request to set a permanent password.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username    string `json:"username"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Username == "" || request.NewPassword == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("username and newPassword are required"))
		return
	}

	if err := h.service.SetPermanentPassword(r.Context(), request.Username, request.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

// EnableUser handles the request to enable a user.
func (h *Handler) EnableUser(w http.ResponseWriter, r *http.Request) {
	h.usernameAction(w, r, h.service.EnableUser)
}

// DisableUser handles the request to disable a user.
func (h *Handler) DisableUser(w http.ResponseWriter, r *http.Request) {
	h.usernameAction(w, r, h.service.DisableUser)
}

// EnableMFA handles the request to enable software-token MFA for a user.
func (h *Handler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	h.usernameAction(w, r, h.service.EnableMFA)
}

// DisableMFA handles the request to disable MFA for a user.
func (h *Handler) DisableMFA(w http.ResponseWriter, r *http.Request) {
	h.usernameAction(w, r, h.service.DisableMFA)
}

// MFAStatus handles the request for a user's MFA enrollment summary.
func (h *Handler) MFAStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username          string `json:"username"`
		UserPoolMFAConfig *struct {
			MFAConfiguration string `json:"mfaConfiguration"`
		} `json:"userPoolMFAConfig"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	poolMode := ""
	if request.UserPoolMFAConfig != nil {
		poolMode = request.UserPoolMFAConfig.MFAConfiguration
	}
	render.JSON(w, r, h.service.UserMFAStatus(r.Context(), request.Username, poolMode))
}

// BeginMFAReset handles the request to start a fresh software-token
// enrollment for a user.
func (h *Handler) BeginMFAReset(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Username     string `json:"username"`
		TempPassword string `json:"tempPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Username == "" || request.TempPassword == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("username and tempPassword are required"))
		return
	}

	setup, err := h.service.BeginMFAReset(r.Context(), request.Username, request.TempPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, setup)
}

// CompleteMFAReset handles the request to confirm a reset enrollment with the
// first TOTP code.
func (h *Handler) CompleteMFAReset(w http.ResponseWriter, r *http.Request) {
	var request struct {
		AccessToken string `json:"accessToken"`
		TOTPCode    string `json:"totpCode"`
		Username    string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.AccessToken == "" || request.TOTPCode == "" || request.Username == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("accessToken, totpCode and username are required"))
		return
	}

	if err := h.service.CompleteMFAReset(r.Context(), request.AccessToken, request.TOTPCode, request.Username); err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

func (h *Handler) usernameAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, username string) error) {
	var request usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if request.Username == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("username is required"))
		return
	}

	if err := action(r.Context(), request.Username); err != nil {
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

// writeServiceError maps service errors onto HTTP statuses. Partial failures
// get a distinct payload so operators know retry is not safe.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var partial PartialFailureError
	if errors.As(err, &partial) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, map[string]any{"error": err.Error(), "partialFailure": true})
		return
	}
	if errors.Is(err, cognito.ErrUserNotFound) {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	var timeout poolmfa.ConvergenceTimeoutError
	if errors.As(err, &timeout) {
		writeError(w, r, http.StatusGatewayTimeout, err)
		return
	}
	writeError(w, r, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
