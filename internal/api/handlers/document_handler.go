package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	middleware "github.com/markdave123-py/docscope/internal/api/middlewares"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/services"
)

const (
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
)

type DocumentHandler struct {
	docs        *services.DocumentService
	maxFiles    int
	maxFileSize int64
}

func NewDocumentHandler(docs *services.DocumentService, cfg *ingestion_engine.IngestConfig) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxFiles: cfg.MaxFiles, maxFileSize: cfg.MaxFileSizeBytes}
}

type UploadResponse struct {
	Message     string      `json:"message"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	SessionID   *uuid.UUID  `json:"session_id,omitempty"`
}

type DocumentResponse struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// UploadDocuments ingests the multipart "files" parts. session_id is a query parameter.
func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID, err := optionalUUID(r, "session_id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if h.maxFiles > 0 && h.maxFileSize > 0 {
		// one spare file so an extra part still parses and is reported as too many files
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxFiles+1)*h.maxFileSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && err != http.ErrNotMultipart {
		WriteError(w, r, wrapMultipartError(err))
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
		defer r.MultipartForm.RemoveAll()
	}

	files := make([]ingestion_engine.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := h.readPart(fh)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		files = append(files, f)
	}

	res, err := h.docs.Upload(r.Context(), middleware.UserIDFromContext(r.Context()), sessionID, files)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:     "Files uploaded successfully",
		DocumentIDs: res.DocumentIDs,
		SessionID:   res.SessionID,
	})
}

// readPart reads at most one byte past the size limit, enough for the
// ingestor to reject an oversized file.
func (h *DocumentHandler) readPart(fh *multipart.FileHeader) (ingestion_engine.UploadFile, error) {
	src, err := fh.Open()
	if err != nil {
		return ingestion_engine.UploadFile{}, fmt.Errorf("open part %q: %w", fh.Filename, err)
	}
	defer src.Close()

	var r io.Reader = src
	if h.maxFileSize > 0 {
		r = io.LimitReader(src, h.maxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ingestion_engine.UploadFile{}, fmt.Errorf("read part %q: %w", fh.Filename, err)
	}
	return ingestion_engine.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func wrapMultipartError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return badRequest("invalid multipart form: %v", err)
}

// ListDocuments returns the caller's documents. Anonymous callers pass session_id as a query parameter.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID, err := optionalUUID(r, "session_id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	docs, err := h.docs.List(r.Context(), middleware.UserIDFromContext(r.Context()), sessionID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	out := ListDocumentsResponse{Documents: make([]DocumentResponse, len(docs))}
	for i, d := range docs {
		out.Documents[i] = DocumentResponse{ID: d.ID, CreatedAt: d.CreatedAt, Metadata: d.Metadata}
	}
	writeJSON(w, http.StatusOK, out)
}
