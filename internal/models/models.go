package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user of the system.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Session is an anonymous access scope with a fixed lifetime.
type Session struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Document is an uploaded file whose extracted text has been chunked and embedded.
// Exactly one of SessionID and UserID is valid.
type Document struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	Metadata  map[string]any `db:"metadata" json:"metadata"`
	SessionID uuid.NullUUID  `db:"session_id" json:"session_id"`
	UserID    uuid.NullUUID  `db:"user_id" json:"user_id"`
}

// ErrOwnership is returned when a document is owned by both or neither scope kinds.
var ErrOwnership = errors.New("document must be owned by exactly one of user or session")

// Validate checks the ownership invariant before the row reaches the database.
func (d *Document) Validate() error {
	if d.SessionID.Valid == d.UserID.Valid {
		return ErrOwnership
	}
	return nil
}

// Scope returns the owning scope of the document.
func (d *Document) Scope() Scope {
	switch {
	case d.UserID.Valid && !d.SessionID.Valid:
		return UserScope(d.UserID.UUID)
	case d.SessionID.Valid && !d.UserID.Valid:
		return SessionScope(d.SessionID.UUID)
	default:
		return Scope{}
	}
}

// EmbeddedChunk is one embedded slice of a document's text.
// Content is plaintext in memory and sealed at rest.
type EmbeddedChunk struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	DocumentID uuid.UUID      `db:"document_id" json:"document_id"`
	Content    string         `db:"content" json:"content"`
	Metadata   map[string]any `db:"metadata" json:"metadata"`
	Embedding  []float32      `db:"embedding" json:"-"` // pgvector column
}

// ScoredChunk is a stored chunk together with its distance to a query vector.
type ScoredChunk struct {
	EmbeddedChunk
	Distance float64
}

// RankedChunk is a retrieval result handed to callers.
type RankedChunk struct {
	DocumentID uuid.UUID      `json:"document_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Distance   float64        `json:"distance"`
}
