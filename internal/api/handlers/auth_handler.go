package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core/auth"
	"github.com/markdave123-py/docscope/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenIssuer
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	UserID           uuid.UUID `json:"user_id"`
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	ExpiresInMinutes int       `json:"expires_in_minutes"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user.ID)
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user.ID)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, userID uuid.UUID) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, status, TokenResponse{
		UserID:           userID,
		AccessToken:      token,
		TokenType:        "Bearer",
		ExpiresInMinutes: int(h.tokens.TTL().Minutes()),
	})
}
