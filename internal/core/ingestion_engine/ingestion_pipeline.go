package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docscope/internal/contextutil"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

const extractWorkers = 4

// NewDocumentIngestor constructs the ingestor. obj may be nil when archival is disabled.
func NewDocumentIngestor(store DocumentWriter, obj core.ObjectClient, extractor core.DocumentExtractor, cfg *IngestConfig) *DocumentIngestor {
	return &DocumentIngestor{store: store, obj: obj, extractor: extractor, cfg: cfg}
}

func (i *DocumentIngestor) CheckFileCount(n int) error {
	if n == 0 {
		return core.ErrNoFiles
	}
	if i.cfg.MaxFiles > 0 && n > i.cfg.MaxFiles {
		return &core.TooManyFilesError{Max: i.cfg.MaxFiles}
	}
	return nil
}

// Ingest validates every file, extracts text in parallel, and persists the
// whole batch with one store call. Originals are archived after the commit on
// a best-effort basis.
func (i *DocumentIngestor) Ingest(ctx context.Context, scope models.Scope, files []UploadFile) ([]uuid.UUID, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	if err := i.CheckFileCount(len(files)); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := i.validate(f); err != nil {
			return nil, err
		}
	}

	docs := make([]extracted, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for idx, f := range files {
		g.Go(func() error {
			out, err := i.extractor.Extract(gctx, f.Data, f.ContentType)
			if err != nil {
				return fmt.Errorf("extract %q: %w", f.Filename, err)
			}
			if strings.TrimSpace(out.Text) == "" {
				return &core.NoTextExtractedError{Filename: f.Filename}
			}
			docs[idx] = extracted{
				filename:    SanitizeFilename(f.Filename),
				contentType: f.ContentType,
				text:        out.Text,
				meta:        out.Metadata,
				data:        f.Data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metas := make([]map[string]any, len(docs))
	texts := make([]string, len(docs))
	for idx, d := range docs {
		meta := make(map[string]any, len(d.meta)+2)
		for k, v := range d.meta {
			meta[k] = v
		}
		meta["filename"] = d.filename
		meta["content_type"] = d.contentType
		metas[idx] = meta
		texts[idx] = d.text
	}

	ids, err := i.store.InsertWithChunks(ctx, scope, metas, texts)
	if err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "documents ingested", "scope", scope.String(), "documents", len(ids))

	i.archive(ctx, scope, ids, docs)
	return ids, nil
}

func (i *DocumentIngestor) validate(f UploadFile) error {
	if strings.TrimSpace(f.ContentType) == "" {
		return core.ErrContentTypeRequired
	}
	if !SupportedContentType(f.ContentType) {
		return &core.UnsupportedContentTypeError{ContentType: f.ContentType}
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: %s", core.ErrEmptyFile, f.Filename)
	}
	if i.cfg.MaxFileSizeBytes > 0 && int64(len(f.Data)) > i.cfg.MaxFileSizeBytes {
		return &core.FileTooLargeError{Filename: f.Filename, MaxBytes: i.cfg.MaxFileSizeBytes}
	}
	return nil
}

// archive uploads the original files. Failures are logged and never undo the commit.
func (i *DocumentIngestor) archive(ctx context.Context, scope models.Scope, ids []uuid.UUID, docs []extracted) {
	if i.obj == nil || len(ids) != len(docs) {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for idx, d := range docs {
		key := ArchiveKey(scope, ids[idx], d.filename)
		g.Go(func() error {
			if _, err := i.obj.UploadFile(gctx, key, bytes.NewReader(d.data), d.contentType); err != nil {
				contextutil.LoggerFromContext(ctx).WarnContext(ctx, "archiving original failed", "key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ArchivePrefix is the object key prefix for everything archived under scope.
func ArchivePrefix(scope models.Scope) string {
	switch scope.Kind() {
	case models.ScopeUser:
		return "users/" + scope.ID().String() + "/"
	case models.ScopeSession:
		return "sessions/" + scope.ID().String() + "/"
	default:
		return ""
	}
}

// ArchiveKey is the object key of one archived original.
func ArchiveKey(scope models.Scope, docID uuid.UUID, filename string) string {
	return ArchivePrefix(scope) + "documents/" + docID.String() + "/" + filename
}

// SanitizeFilename keeps the base name, trimmed and bounded to MaxFilenameLength runes.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := strings.TrimSpace(path.Base(name))
	if base == "" || base == "." || base == "/" {
		base = "unknown"
	}
	if r := []rune(base); len(r) > MaxFilenameLength {
		base = string(r[:MaxFilenameLength])
	}
	return base
}
