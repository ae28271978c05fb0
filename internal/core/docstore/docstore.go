// Package docstore persists scoped documents with their embedded chunks and
// runs scoped similarity search over them.
package docstore

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/cache"
	"github.com/markdave123-py/docscope/internal/core/encryption"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/models"
)

// Chunk metadata keys added to every stored chunk.
const (
	MetaChunkIndex = "chunk_index"
	MetaChunkCount = "chunk_count"
	MetaTokenCount = "token_count"
)

// Config holds cache lifetimes; zero means no expiry.
type Config struct {
	DocCacheTTL   time.Duration
	QueryCacheTTL time.Duration
}

type Store struct {
	db       core.DbClient
	chunker  *ingestion_engine.Chunker
	embedder core.EmbeddingProvider
	cache    *cache.EmbeddingCache
	sealer   *encryption.Sealer
	cfg      Config
	now      func() time.Time
}

// New wires the store. A nil cache disables caching; a nil sealer stores content as plaintext.
func New(db core.DbClient, chunker *ingestion_engine.Chunker, embedder core.EmbeddingProvider, c *cache.EmbeddingCache, sealer *encryption.Sealer, cfg Config) *Store {
	if c == nil {
		c = cache.Disabled()
	}
	return &Store{db: db, chunker: chunker, embedder: embedder, cache: c, sealer: sealer, cfg: cfg, now: time.Now}
}

var _ ingestion_engine.DocumentWriter = (*Store)(nil)

// InsertWithChunks stores one document per text, all under scope, and returns
// their ids in input order. Chunking, embedding and sealing finish before the
// single write, so a failure at any step persists nothing.
func (s *Store) InsertWithChunks(ctx context.Context, scope models.Scope, metadataList []map[string]any, texts []string) ([]uuid.UUID, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	if len(metadataList) != len(texts) {
		return nil, fmt.Errorf("%w: %d metadata entries for %d texts", core.ErrBatchLengthMismatch, len(metadataList), len(texts))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	now := s.now().UTC()
	sessionID, userID := scope.Columns()

	docs := make([]models.Document, len(texts))
	ids := make([]uuid.UUID, len(texts))
	var (
		chunkTexts []string
		chunkMeta  []map[string]any
		chunkDocs  []uuid.UUID
	)
	for i, text := range texts {
		doc := models.Document{
			ID:        uuid.New(),
			CreatedAt: now,
			Metadata:  maps.Clone(metadataList[i]),
			SessionID: sessionID,
			UserID:    userID,
		}
		if doc.Metadata == nil {
			doc.Metadata = map[string]any{}
		}
		docs[i] = doc
		ids[i] = doc.ID

		for _, ch := range s.split(text) {
			meta := maps.Clone(doc.Metadata)
			meta[MetaChunkIndex] = ch.Index
			meta[MetaChunkCount] = ch.Count
			meta[MetaTokenCount] = ch.TokenCount
			chunkTexts = append(chunkTexts, ch.Text)
			chunkMeta = append(chunkMeta, meta)
			chunkDocs = append(chunkDocs, doc.ID)
		}
	}

	vectors, err := s.embedDocuments(ctx, chunkTexts)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.EmbeddedChunk, len(chunkTexts))
	for i, text := range chunkTexts {
		content, err := s.seal(text)
		if err != nil {
			return nil, err
		}
		chunks[i] = models.EmbeddedChunk{
			ID:         uuid.New(),
			CreatedAt:  now,
			DocumentID: chunkDocs[i],
			Content:    content,
			Metadata:   chunkMeta[i],
			Embedding:  vectors[i],
		}
	}

	if err := s.db.InsertDocumentsWithChunks(ctx, docs, chunks); err != nil {
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	return ids, nil
}

// split falls back to the whole text as a single chunk when the chunker yields nothing.
func (s *Store) split(text string) []ingestion_engine.Chunk {
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		chunks = []ingestion_engine.Chunk{{Index: 0, Count: 1, End: len([]rune(text)), Text: text}}
	}
	return chunks
}

// embedDocuments resolves vectors from the cache and embeds only the misses,
// in one provider call, writing them back afterwards.
func (s *Store) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cache.DocChunkKey(t)
	}
	vectors := s.cache.Lookup(ctx, keys)

	var missIdx []int
	var missTexts []string
	for i, v := range vectors {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := s.embedder.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, &core.EmbeddingGenerationError{
			Err: fmt.Errorf("provider returned %d embeddings for %d texts", len(fresh), len(missTexts)),
		}
	}
	for j, i := range missIdx {
		vectors[i] = fresh[j]
		s.cache.Store(ctx, keys[i], fresh[j], s.cfg.DocCacheTTL)
	}
	return vectors, nil
}

// EmbedQuery returns the query vector, consulting the query cache first.
func (s *Store) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	key := cache.QueryKey(query)
	if hit := s.cache.Lookup(ctx, []string{key})[0]; hit != nil {
		return hit, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Store(ctx, key, vec, s.cfg.QueryCacheTTL)
	return vec, nil
}

// VerifyDocumentIDs fails with *core.DocumentIDsNotFoundError unless scope owns every id.
// A nil ids means no filter and always passes.
func (s *Store) VerifyDocumentIDs(ctx context.Context, scope models.Scope, ids []uuid.UUID) error {
	if scope.IsZero() {
		return core.ErrScopeRequired
	}
	if ids == nil {
		return nil
	}
	if len(ids) == 0 {
		return core.ErrDocumentIDsEmpty
	}
	missing, err := s.db.MissingDocumentIDs(ctx, scope, ids)
	if err != nil {
		return fmt.Errorf("verify document ids: %w", err)
	}
	if len(missing) > 0 {
		return &core.DocumentIDsNotFoundError{MissingIDs: missing}
	}
	return nil
}

// Search returns at most k of scope's chunks nearest to queryVec, optionally
// restricted to filter. Ownership of filter is re-checked in the same snapshot as the ranking.
func (s *Store) Search(ctx context.Context, scope models.Scope, queryVec []float32, k int, filter []uuid.UUID) ([]models.RankedChunk, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	if filter != nil && len(filter) == 0 {
		return nil, core.ErrDocumentIDsEmpty
	}
	if k <= 0 {
		return nil, core.ErrInvalidTopK
	}

	scored, err := s.db.SearchChunks(ctx, scope, queryVec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	out := make([]models.RankedChunk, 0, len(scored))
	for _, sc := range scored {
		content, err := s.open(sc.Content)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", sc.ID, err)
		}
		out = append(out, models.RankedChunk{
			DocumentID: sc.DocumentID,
			Content:    content,
			Metadata:   sc.Metadata,
			Distance:   sc.Distance,
		})
	}
	return out, nil
}

// ListDocuments returns scope's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, scope models.Scope) ([]models.Document, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	return s.db.ListDocuments(ctx, scope)
}

func (s *Store) seal(text string) (string, error) {
	if s.sealer == nil {
		return text, nil
	}
	return s.sealer.Seal(text)
}

func (s *Store) open(content string) (string, error) {
	if s.sealer == nil {
		return content, nil
	}
	return s.sealer.Open(content)
}
