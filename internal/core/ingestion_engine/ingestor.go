package ingestion_engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/models"
)

// Ingestor turns uploaded files into stored, searchable documents.
type Ingestor interface {
	// CheckFileCount validates the number of files before any other work is done.
	CheckFileCount(n int) error
	// Ingest stores all files under scope or none of them, and returns the new document ids in file order.
	Ingest(ctx context.Context, scope models.Scope, files []UploadFile) ([]uuid.UUID, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
