package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

// ScopeResolver turns the caller's identity into the scope every document
// operation runs under. It never touches the embedding provider.
type ScopeResolver struct {
	sessions *SessionService
}

func NewScopeResolver(sessions *SessionService) *ScopeResolver {
	return &ScopeResolver{sessions: sessions}
}

// Resolve requires exactly one of userID and sessionID. A session must exist and be live.
func (r *ScopeResolver) Resolve(ctx context.Context, userID, sessionID *uuid.UUID) (models.Scope, error) {
	switch {
	case userID != nil && sessionID != nil:
		return models.Scope{}, core.ErrScopeConflict
	case userID == nil && sessionID == nil:
		return models.Scope{}, core.ErrScopeRequired
	case userID != nil:
		return models.UserScope(*userID), nil
	}

	session, err := r.sessions.Get(ctx, *sessionID)
	if err != nil {
		return models.Scope{}, err
	}
	return models.SessionScope(session.ID), nil
}

// ResolveForUpload lets an authenticated user win over any session id, and
// opens a new session for an anonymous caller that brought none.
func (r *ScopeResolver) ResolveForUpload(ctx context.Context, userID, sessionID *uuid.UUID) (models.Scope, error) {
	if userID != nil {
		return models.UserScope(*userID), nil
	}
	if sessionID == nil {
		session, err := r.sessions.Create(ctx)
		if err != nil {
			return models.Scope{}, err
		}
		return models.SessionScope(session.ID), nil
	}
	return r.Resolve(ctx, nil, sessionID)
}
