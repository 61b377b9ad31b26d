package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/application/token"
	"github.com/go-auth-api/internal/transport/http/middleware"
)

// TokenHandler handles refresh-token rotation and logout.
type TokenHandler struct {
	tokens token.Service
	auth   auth.Service
}

func NewTokenHandler(tokens token.Service, authSvc auth.Service) *TokenHandler {
	return &TokenHandler{tokens: tokens, auth: authSvc}
}

func (h *TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	pair, err := h.tokens.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented refresh token, or every token of the
// authenticated user when no token is given.
func (h *TokenHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// Body is optional; an empty or absent body means logout-everywhere.
	_ = json.NewDecoder(r.Body).Decode(&req)

	var userID string
	if req.RefreshToken == "" {
		userID = claims.UserID
	}
	if err := h.auth.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
