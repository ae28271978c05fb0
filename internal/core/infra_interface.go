package core

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_infra.go -package=mocks github.com/markdave123-py/docscope/internal/core DbClient,ObjectClient

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateSession(ctx context.Context, session *models.Session) error
	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// DeleteExpiredSessions removes sessions expired at now together with their
	// documents and chunks, and returns the deleted session ids.
	DeleteExpiredSessions(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// InsertDocumentsWithChunks persists all documents and chunks in one transaction.
	InsertDocumentsWithChunks(ctx context.Context, docs []models.Document, chunks []models.EmbeddedChunk) error
	ListDocuments(ctx context.Context, scope models.Scope) ([]models.Document, error)
	// MissingDocumentIDs returns the subset of ids not owned by scope.
	MissingDocumentIDs(ctx context.Context, scope models.Scope, ids []uuid.UUID) ([]uuid.UUID, error)
	// SearchChunks checks ownership of filter (when non-nil) and ranks the scope's chunks by
	// cosine distance inside one read-only snapshot. Chunk content is returned as stored.
	SearchChunks(ctx context.Context, scope models.Scope, queryVec []float32, limit int, filter []uuid.UUID) ([]models.ScoredChunk, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	// DeletePrefix removes every object whose key starts with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
