package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// LoginHandler handles password login and the OTP login flow endpoints.
type LoginHandler struct {
	svc auth.Service
}

func NewLoginHandler(svc auth.Service) *LoginHandler {
	return &LoginHandler{svc: svc}
}

func (h *LoginHandler) Password(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	pair, u, err := h.svc.LoginPassword(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
	})
}

type otpLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"`
}

func (h *LoginHandler) OTPAction(w http.ResponseWriter, r *http.Request) {
	var req otpLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	switch chi.URLParam(r, "action") {
	case "request":
		res, err := h.svc.LoginOTPRequest(r.Context(), req.Email)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OTPEnvelope{
			Message:   "login code sent",
			ExpiresAt: &res.ExpiresAt,
			DebugCode: res.DebugCode,
		})
	case "confirm":
		if req.Code == "" {
			writeError(w, http.StatusUnprocessableEntity, "field 'Code' failed 'required'")
			return
		}
		pair, u, err := h.svc.LoginOTPConfirm(r.Context(), req.Email, req.Code)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AuthEnvelope{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         u,
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
