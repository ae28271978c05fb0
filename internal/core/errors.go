package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Scope and filter errors. These are detected before any external call is made.
var (
	ErrScopeRequired    = errors.New("request must be scoped to a user or a session")
	ErrScopeConflict    = errors.New("request may not carry both a user and a session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrDocumentIDsEmpty = errors.New("document_ids cannot be an empty list")
	ErrInvalidTopK      = errors.New("top_k must be positive")

	// ErrBatchLengthMismatch is returned when parallel batch inputs differ in length.
	ErrBatchLengthMismatch = errors.New("batch inputs have mismatched lengths")
)

// Request-shaped errors raised by the question answering flow.
var (
	ErrQuestionInvalid   = errors.New("question is too vague or not about the documents")
	ErrNoRelevantContext = errors.New("no relevant context found in specified documents")
)

// Content-at-rest errors. Both are internal and never absorbed.
var (
	ErrContentEncryption = errors.New("document content encryption failed")
	ErrContentDecryption = errors.New("document content decryption failed")
)

// DocumentIDsNotFoundError reports requested document ids that are not owned by the scope.
type DocumentIDsNotFoundError struct {
	MissingIDs []uuid.UUID
}

func (e *DocumentIDsNotFoundError) Error() string {
	ids := make([]string, len(e.MissingIDs))
	for i, id := range e.MissingIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("document ids not found: %s", strings.Join(ids, ", "))
}

// EmbeddingGenerationError wraps any failure of the embedding provider.
// A call that returns it has persisted nothing.
type EmbeddingGenerationError struct {
	Err error
}

func (e *EmbeddingGenerationError) Error() string {
	return fmt.Sprintf("embedding generation failed: %v", e.Err)
}

func (e *EmbeddingGenerationError) Unwrap() error { return e.Err }

// UnsupportedContentTypeError is returned for uploads the extractor cannot read.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type: %s", e.ContentType)
}

// TextExtractionError wraps a failure of the underlying extractor.
type TextExtractionError struct {
	ContentType string
	Err         error
}

func (e *TextExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for %s: %v", e.ContentType, e.Err)
}

func (e *TextExtractionError) Unwrap() error { return e.Err }

// Upload validation errors.
var (
	ErrNoFiles             = errors.New("no files provided")
	ErrEmptyFile           = errors.New("uploaded file is empty")
	ErrContentTypeRequired = errors.New("content type is required")
)

// TooManyFilesError is returned when an upload carries more files than allowed.
type TooManyFilesError struct {
	Max int
}

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("too many files: at most %d allowed", e.Max)
}

// FileTooLargeError reports a file over the per-file size limit.
type FileTooLargeError struct {
	Filename string
	MaxBytes int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q exceeds %d bytes", e.Filename, e.MaxBytes)
}

// NoTextExtractedError is returned when a file yields no usable text.
type NoTextExtractedError struct {
	Filename string
}

func (e *NoTextExtractedError) Error() string {
	return fmt.Sprintf("no text could be extracted from %q", e.Filename)
}

// Auth errors.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenMissingUserID = errors.New("token missing user_id")
)

// Request validation errors. The HTTP layer reports them as 422.
var (
	ErrQuestionEmpty      = errors.New("question must not be empty")
	ErrQuestionTooLong    = errors.New("question is too long")
	ErrTooManyDocumentIDs = errors.New("too many document_ids")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("password length is out of range")
)
