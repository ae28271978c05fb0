package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

// SessionService issues anonymous sessions with a fixed lifetime.
type SessionService struct {
	db  core.DbClient
	ttl time.Duration
	now func() time.Time
}

func NewSessionService(db core.DbClient, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionService) Create(ctx context.Context) (*models.Session, error) {
	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Get loads a live session, failing with ErrSessionNotFound or ErrSessionExpired.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.db.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, core.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		return nil, core.ErrSessionExpired
	}
	return session, nil
}
