package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/services"
)

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: session.ID, ExpiresAt: session.ExpiresAt})
}
