package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// RegisterHandler handles the registration-via-OTP flow endpoints.
type RegisterHandler struct {
	svc auth.Service
}

func NewRegisterHandler(svc auth.Service) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

func (h *RegisterHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req auth.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		res, err := h.svc.RegisterRequest(r.Context(), req)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OTPEnvelope{
			Message:   "verification code sent",
			ExpiresAt: &res.ExpiresAt,
			DebugCode: res.DebugCode,
		})
	case "confirm":
		var req auth.RegisterConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		pair, u, err := h.svc.RegisterConfirm(r.Context(), req)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, AuthEnvelope{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         u,
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
