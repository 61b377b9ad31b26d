package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// recoveryMessage is the single response body for every reset request so the
// endpoint never reveals whether an identifier exists.
const recoveryMessage = "if that account exists, a reset code has been sent"

// PasswordRecoveryHandler handles the password reset flow endpoints.
type PasswordRecoveryHandler struct {
	svc auth.Service
}

func NewPasswordRecoveryHandler(svc auth.Service) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc}
}

type recoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req recoveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		res, err := h.svc.PasswordResetRequest(r.Context(), req.Email)
		if err != nil {
			// Cooldown and delivery failures still surface; only plain
			// non-existence is hidden (the service returns nil, nil then).
			httpError(w, err)
			return
		}
		// Same envelope whether a code was sent (res != nil) or the
		// identifier was unknown (res == nil).
		env := OTPEnvelope{Message: recoveryMessage}
		if res != nil {
			env.DebugCode = res.DebugCode
		}
		writeJSON(w, http.StatusOK, env)
	case "confirm":
		var req auth.ResetConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := h.svc.PasswordResetConfirm(r.Context(), req); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated, all sessions revoked"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
