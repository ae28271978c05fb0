package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIDsNotFoundError(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	err := fmt.Errorf("search: %w", &DocumentIDsNotFoundError{MissingIDs: []uuid.UUID{a, b}})

	var notFound *DocumentIDsNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, []uuid.UUID{a, b}, notFound.MissingIDs)
	assert.Contains(t, err.Error(), a.String())
	assert.Contains(t, err.Error(), b.String())
}

func TestEmbeddingGenerationError_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := fmt.Errorf("ingest: %w", &EmbeddingGenerationError{Err: cause})

	var embErr *EmbeddingGenerationError
	require.True(t, errors.As(err, &embErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ingest: embedding generation failed: quota exceeded", err.Error())
}

func TestTextExtractionError_Unwrap(t *testing.T) {
	cause := errors.New("corrupt xref table")
	err := &TextExtractionError{ContentType: "application/pdf", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "text extraction failed for application/pdf: corrupt xref table", err.Error())
}

func TestUnsupportedContentTypeError(t *testing.T) {
	err := &UnsupportedContentTypeError{ContentType: "text/html"}
	assert.Equal(t, "unsupported content type: text/html", err.Error())
}
