package ingestion_engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/mocks"
	"github.com/markdave123-py/docscope/internal/models"
)

type fakeWriter struct {
	mu     sync.Mutex
	calls  int
	scope  models.Scope
	metas  []map[string]any
	texts  []string
	err    error
	result []uuid.UUID
}

func (w *fakeWriter) InsertWithChunks(_ context.Context, scope models.Scope, metas []map[string]any, texts []string) ([]uuid.UUID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	w.scope, w.metas, w.texts = scope, metas, texts
	if w.err != nil {
		return nil, w.err
	}
	w.result = make([]uuid.UUID, len(texts))
	for i := range w.result {
		w.result[i] = uuid.New()
	}
	return w.result, nil
}

// textExtractor returns the file bytes as text.
type textExtractor struct {
	fail map[string]error
}

func (e textExtractor) Extract(_ context.Context, data []byte, _ string) (core.ExtractedText, error) {
	if err, ok := e.fail[string(data)]; ok {
		return core.ExtractedText{}, err
	}
	return core.ExtractedText{Text: string(data), Metadata: map[string]string{"pages": "1"}}, nil
}

func newTestIngestor(w DocumentWriter, obj core.ObjectClient, ext core.DocumentExtractor) *DocumentIngestor {
	return NewDocumentIngestor(w, obj, ext, &IngestConfig{MaxFiles: 3, MaxFileSizeBytes: 64})
}

func pdf(name, body string) UploadFile {
	return UploadFile{Filename: name, ContentType: "application/pdf", Data: []byte(body)}
}

func TestDocumentIngestor_Ingest(t *testing.T) {
	w := &fakeWriter{}
	scope := models.SessionScope(uuid.New())
	ing := newTestIngestor(w, nil, textExtractor{})

	ids, err := ing.Ingest(context.Background(), scope, []UploadFile{
		pdf("dir/a.pdf", "alpha text"),
		{Filename: "b.png", ContentType: "image/png", Data: []byte("beta text")},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	assert.Equal(t, scope, w.scope)
	assert.Equal(t, []string{"alpha text", "beta text"}, w.texts)
	assert.Equal(t, "a.pdf", w.metas[0]["filename"])
	assert.Equal(t, "application/pdf", w.metas[0]["content_type"])
	assert.Equal(t, "1", w.metas[0]["pages"])
	assert.Equal(t, "image/png", w.metas[1]["content_type"])
}

func TestDocumentIngestor_Validation(t *testing.T) {
	tests := []struct {
		name  string
		files []UploadFile
		check func(t *testing.T, err error)
	}{
		{
			name:  "no files",
			files: nil,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, core.ErrNoFiles) },
		},
		{
			name:  "too many files",
			files: []UploadFile{pdf("1", "x"), pdf("2", "x"), pdf("3", "x"), pdf("4", "x")},
			check: func(t *testing.T, err error) {
				var tooMany *core.TooManyFilesError
				require.ErrorAs(t, err, &tooMany)
				assert.Equal(t, 3, tooMany.Max)
			},
		},
		{
			name:  "missing content type",
			files: []UploadFile{{Filename: "a", Data: []byte("x")}},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, core.ErrContentTypeRequired) },
		},
		{
			name:  "unsupported content type",
			files: []UploadFile{{Filename: "a.html", ContentType: "text/html", Data: []byte("x")}},
			check: func(t *testing.T, err error) {
				var unsupported *core.UnsupportedContentTypeError
				assert.ErrorAs(t, err, &unsupported)
			},
		},
		{
			name:  "empty file",
			files: []UploadFile{pdf("a.pdf", "")},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, core.ErrEmptyFile) },
		},
		{
			name:  "file too large",
			files: []UploadFile{pdf("big.pdf", strings.Repeat("x", 65))},
			check: func(t *testing.T, err error) {
				var tooLarge *core.FileTooLargeError
				require.ErrorAs(t, err, &tooLarge)
				assert.Equal(t, "big.pdf", tooLarge.Filename)
			},
		},
		{
			name:  "blank text",
			files: []UploadFile{pdf("blank.pdf", "   \n ")},
			check: func(t *testing.T, err error) {
				var noText *core.NoTextExtractedError
				assert.ErrorAs(t, err, &noText)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			ing := newTestIngestor(w, nil, textExtractor{})

			_, err := ing.Ingest(context.Background(), models.UserScope(uuid.New()), tt.files)
			require.Error(t, err)
			tt.check(t, err)
			assert.Zero(t, w.calls, "nothing may reach the store")
		})
	}
}

func TestDocumentIngestor_ExtractionFailure(t *testing.T) {
	w := &fakeWriter{}
	cause := &core.TextExtractionError{ContentType: "application/pdf", Err: errors.New("corrupt")}
	ing := newTestIngestor(w, nil, textExtractor{fail: map[string]error{"bad": cause}})

	_, err := ing.Ingest(context.Background(), models.UserScope(uuid.New()), []UploadFile{pdf("ok.pdf", "fine"), pdf("bad.pdf", "bad")})

	var extractErr *core.TextExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Zero(t, w.calls)
}

func TestDocumentIngestor_RequiresScope(t *testing.T) {
	ing := newTestIngestor(&fakeWriter{}, nil, textExtractor{})
	_, err := ing.Ingest(context.Background(), models.Scope{}, []UploadFile{pdf("a.pdf", "x")})
	assert.ErrorIs(t, err, core.ErrScopeRequired)
}

func TestDocumentIngestor_ArchivesAfterCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	obj := mocks.NewMockObjectClient(ctrl)
	w := &fakeWriter{}
	sessionID := uuid.New()
	scope := models.SessionScope(sessionID)

	prefix := "sessions/" + sessionID.String() + "/documents/"
	obj.EXPECT().
		UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").
		DoAndReturn(func(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(key, prefix), key)
			assert.True(t, strings.HasSuffix(key, "/a.pdf"), key)
			return "https://bucket/" + key, nil
		})
	obj.EXPECT().
		UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), "image/png").
		Return("", errors.New("s3 down"))

	ing := newTestIngestor(w, obj, textExtractor{})
	ids, err := ing.Ingest(context.Background(), scope, []UploadFile{
		pdf("a.pdf", "alpha"),
		{Filename: "b.png", ContentType: "image/png", Data: []byte("beta")},
	})
	require.NoError(t, err, "archival failures are not fatal")
	assert.Len(t, ids, 2)
}

func TestDocumentIngestor_StoreFailureSkipsArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	obj := mocks.NewMockObjectClient(ctrl)
	w := &fakeWriter{err: &core.EmbeddingGenerationError{Err: errors.New("quota")}}

	ing := newTestIngestor(w, obj, textExtractor{})
	_, err := ing.Ingest(context.Background(), models.UserScope(uuid.New()), []UploadFile{pdf("a.pdf", "alpha")})

	var embErr *core.EmbeddingGenerationError
	assert.ErrorAs(t, err, &embErr)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("../../etc/report.pdf"))
	assert.Equal(t, "scan.png", SanitizeFilename(`C:\Users\me\scan.png`))
	assert.Equal(t, "unknown", SanitizeFilename(""))
	assert.Equal(t, "unknown", SanitizeFilename("  "))
	assert.Len(t, []rune(SanitizeFilename(strings.Repeat("é", 300))), MaxFilenameLength)
}

func TestArchivePrefix(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "users/"+id.String()+"/", ArchivePrefix(models.UserScope(id)))
	assert.Equal(t, "sessions/"+id.String()+"/", ArchivePrefix(models.SessionScope(id)))
	assert.Equal(t, "", ArchivePrefix(models.Scope{}))

	doc := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "sessions/"+id.String()+"/documents/"+doc.String()+"/a.pdf", ArchiveKey(models.SessionScope(id), doc, "a.pdf"))
}

func TestSupportedContentType(t *testing.T) {
	assert.True(t, SupportedContentType("application/pdf"))
	assert.True(t, SupportedContentType("Application/PDF; charset=binary"))
	assert.True(t, SupportedContentType("image/jpeg"))
	assert.False(t, SupportedContentType("text/plain"))
	assert.False(t, SupportedContentType(""))
}
