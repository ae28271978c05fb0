package ingestion_engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

// MaxFilenameLength bounds the stored filename.
const MaxFilenameLength = 255

// IngestConfig tunes upload validation.
//
// MaxFiles:         files accepted per upload (e.g., 5).
// MaxFileSizeBytes: per-file size limit (e.g., 10 MiB).
type IngestConfig struct {
	MaxFiles         int
	MaxFileSizeBytes int64
}

// UploadFile is one file of an upload request.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentWriter persists a batch of documents and their chunks.
// It is satisfied by *docstore.Store.
type DocumentWriter interface {
	InsertWithChunks(ctx context.Context, scope models.Scope, metadataList []map[string]any, texts []string) ([]uuid.UUID, error)
}

// DocumentIngestor validates uploads, extracts their text, and hands the batch
// to the document store:
//
// store:     persistence for documents and chunks.
// obj:       optional archival of the original files (nil disables it).
// extractor: text extraction (docconv).
// cfg:       upload limits.
type DocumentIngestor struct {
	store     DocumentWriter
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	cfg       *IngestConfig
}

// extracted is one validated file together with its text.
type extracted struct {
	filename    string
	contentType string
	text        string
	meta        map[string]string
	data        []byte
}
