package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/database/memdb"
	"github.com/markdave123-py/docscope/internal/core/docstore"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/core/mocks"
)

// plainExtractor treats every upload as UTF-8 text.
type plainExtractor struct{}

func (plainExtractor) Extract(_ context.Context, data []byte, _ string) (core.ExtractedText, error) {
	return core.ExtractedText{Text: string(data)}, nil
}

// embedText maps text to letter-class counts, so texts sharing vocabulary land close together.
func embedText(text string) []float32 {
	v := make([]float32, 4)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[(r-'a')%4]++
		}
	}
	v[3] += 0.01
	return v
}

type fixture struct {
	db        *memdb.Store
	embedder  *mocks.MockEmbeddingProvider
	llm       *mocks.MockLLMProvider
	sessions  *SessionService
	resolver  *ScopeResolver
	retrieval *RetrievalService
	documents *DocumentService
	qa        *QAService
	users     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := memdb.New()
	emb := mocks.NewMockEmbeddingProvider(ctrl)
	llm := mocks.NewMockLLMProvider(ctrl)

	store := docstore.New(db, ingestion_engine.NewChunker(200, 20), emb, nil, nil, docstore.Config{})
	ingestor := ingestion_engine.NewDocumentIngestor(store, nil, plainExtractor{}, &ingestion_engine.IngestConfig{
		MaxFiles:         2,
		MaxFileSizeBytes: 1 << 20,
	})

	sessions := NewSessionService(db, time.Hour)
	resolver := NewScopeResolver(sessions)
	retrieval := NewRetrievalService(resolver, store)
	users := NewUserService(db)
	users.cost = 4

	return &fixture{
		db:        db,
		embedder:  emb,
		llm:       llm,
		sessions:  sessions,
		resolver:  resolver,
		retrieval: retrieval,
		documents: NewDocumentService(resolver, ingestor, store),
		qa:        NewQAService(resolver, retrieval, llm),
		users:     users,
	}
}

// allowEmbedding lets the embedder answer any number of calls deterministically.
func (f *fixture) allowEmbedding() {
	f.embedder.EXPECT().EmbedBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, t := range texts {
				out[i] = embedText(t)
			}
			return out, nil
		}).AnyTimes()
	f.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, text string) ([]float32, error) {
			return embedText(text), nil
		}).AnyTimes()
}

func pdf(name, text string) ingestion_engine.UploadFile {
	return ingestion_engine.UploadFile{Filename: name, ContentType: "application/pdf", Data: []byte(text)}
}

func (f *fixture) uploadAnonymous(t *testing.T, texts ...string) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	files := make([]ingestion_engine.UploadFile, len(texts))
	for i, text := range texts {
		files[i] = pdf("doc.pdf", text)
	}
	res, err := f.documents.Upload(context.Background(), nil, nil, files)
	require.NoError(t, err)
	require.NotNil(t, res.SessionID)
	return *res.SessionID, res.DocumentIDs
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func farFuture() time.Time { return time.Now().Add(100 * 365 * 24 * time.Hour) }
