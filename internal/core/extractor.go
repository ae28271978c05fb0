package core

import (
	"context"
)

// ExtractedText represents the result of text extraction, potentially with metadata.
type ExtractedText struct {
	Text     string
	Metadata map[string]string
}

// DocumentExtractor defines the interface for extracting text from uploaded files.
type DocumentExtractor interface {
	// Extract returns the text of data. The contentType hint selects the parsing strategy;
	// unknown types fail with *UnsupportedContentTypeError, parser failures with *TextExtractionError.
	Extract(ctx context.Context, data []byte, contentType string) (ExtractedText, error)
}
