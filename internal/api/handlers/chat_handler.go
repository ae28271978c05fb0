package handlers

import (
	"net/http"

	"github.com/google/uuid"

	middleware "github.com/markdave123-py/docscope/internal/api/middlewares"
	"github.com/markdave123-py/docscope/internal/services"
)

type ChatHandler struct {
	qa *services.QAService
}

func NewChatHandler(qa *services.QAService) *ChatHandler {
	return &ChatHandler{qa: qa}
}

// AskRequest is the body of POST /ask. A null or absent document_ids searches
// every document in scope; an empty list is rejected.
type AskRequest struct {
	Question    string      `json:"question"`
	TopK        *int        `json:"top_k,omitempty"`
	SessionID   *uuid.UUID  `json:"session_id,omitempty"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	topK := services.DefaultTopK
	if req.TopK != nil {
		if *req.TopK < 1 {
			WriteError(w, r, badRequest("top_k must be between 1 and %d", services.MaxTopK))
			return
		}
		topK = *req.TopK
	}

	answer, err := h.qa.Ask(r.Context(), services.AskRequest{
		Question:    req.Question,
		TopK:        topK,
		UserID:      middleware.UserIDFromContext(r.Context()),
		SessionID:   req.SessionID,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}
