package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/docscope/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
// Image support depends on docconv being built with its OCR tag.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// SupportedContentType reports whether uploads of contentType are accepted.
func SupportedContentType(contentType string) bool {
	ct := normalizeContentType(contentType)
	return ct == "application/pdf" || strings.HasPrefix(ct, "image/")
}

func normalizeContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// Extract converts data to plain text. docconv does not take a context, so the
// conversion runs in its own goroutine and is abandoned if ctx ends first.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, contentType string) (core.ExtractedText, error) {
	if !SupportedContentType(contentType) {
		return core.ExtractedText{}, &core.UnsupportedContentTypeError{ContentType: contentType}
	}
	ct := normalizeContentType(contentType)

	type result struct {
		res *docconv.Response
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := docconv.Convert(bytes.NewReader(data), ct, e.useReadability)
		done <- result{res: res, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return core.ExtractedText{}, &core.TextExtractionError{ContentType: ct, Err: ctx.Err()}
	case r = <-done:
	}

	if r.err != nil {
		return core.ExtractedText{}, &core.TextExtractionError{ContentType: ct, Err: r.err}
	}
	if r.res == nil {
		return core.ExtractedText{}, &core.TextExtractionError{ContentType: ct, Err: errors.New("empty conversion result")}
	}
	if r.res.Error != "" {
		return core.ExtractedText{}, &core.TextExtractionError{ContentType: ct, Err: errors.New(r.res.Error)}
	}

	return core.ExtractedText{Text: r.res.Body, Metadata: r.res.Meta}, nil
}
