package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/contextutil"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/docstore"
	"github.com/markdave123-py/docscope/internal/models"
)

// RetrievalService finds the chunks a question can be answered from,
// strictly inside the caller's scope.
type RetrievalService struct {
	resolver *ScopeResolver
	store    *docstore.Store
}

func NewRetrievalService(resolver *ScopeResolver, store *docstore.Store) *RetrievalService {
	return &RetrievalService{resolver: resolver, store: store}
}

// AnswerableContext resolves the scope and returns up to k chunks nearest to query.
// A non-nil documentIDs restricts the search to those documents, all of which
// must belong to the scope.
func (s *RetrievalService) AnswerableContext(ctx context.Context, query string, k int, userID, sessionID *uuid.UUID, documentIDs []uuid.UUID) ([]models.RankedChunk, error) {
	scope, err := s.resolver.Resolve(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Retrieve(ctx, scope, query, k, documentIDs)
}

// CheckDocumentIDs fails with *core.DocumentIDsNotFoundError unless scope owns
// every id. A nil documentIDs always passes.
func (s *RetrievalService) CheckDocumentIDs(ctx context.Context, scope models.Scope, documentIDs []uuid.UUID) error {
	return s.store.VerifyDocumentIDs(ctx, scope, documentIDs)
}

// Retrieve runs the search for an already resolved scope. Every check that
// needs no network call runs before the query is embedded.
func (s *RetrievalService) Retrieve(ctx context.Context, scope models.Scope, query string, k int, documentIDs []uuid.UUID) ([]models.RankedChunk, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	if documentIDs != nil && len(documentIDs) == 0 {
		return nil, core.ErrDocumentIDsEmpty
	}
	if k <= 0 {
		return nil, core.ErrInvalidTopK
	}
	if err := s.store.VerifyDocumentIDs(ctx, scope, documentIDs); err != nil {
		return nil, err
	}

	queryVec, err := s.store.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.Search(ctx, scope, queryVec, k, documentIDs)
	if err != nil {
		return nil, err
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "retrieved context", "scope", scope.Kind().String(), "k", k, "chunks", len(chunks))
	return chunks, nil
}
