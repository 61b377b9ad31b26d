package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/pkg/validate"
)

// OTPHandler exposes the low-level OTP engine endpoints. The flow handlers
// (register, login, password recovery) wrap these with directory checks; this
// surface is for callers that orchestrate their own flows.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

type sendOTPRequest struct {
	Identifier string            `json:"identifier" validate:"required"`
	Purpose    string            `json:"purpose" validate:"required"`
	Context    map[string]string `json:"context"`
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	// The flow endpoints attach these keys themselves; a raw caller must not
	// be able to plant them on a record.
	for _, k := range []string{auth.MetaKeyUserID, auth.MetaKeyName} {
		delete(req.Context, k)
	}
	res, err := h.svc.Issue(r.Context(), req.Identifier, purpose, req.Context)
	if err != nil {
		httpError(w, err)
		return
	}
	// The only place a plaintext code may reach a response.
	writeJSON(w, http.StatusOK, OTPEnvelope{
		Message:   "code sent",
		ExpiresAt: &res.ExpiresAt,
		DebugCode: res.DebugCode,
	})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	res, err := h.svc.Verify(r.Context(), req.Identifier, req.Code, purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Valid: true, Metadata: res.Metadata})
}
