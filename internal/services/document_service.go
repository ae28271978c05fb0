package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core/docstore"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/models"
)

// UploadResult lists the stored documents in upload order. SessionID is set
// only for anonymous uploads, so the caller can keep using the session.
type UploadResult struct {
	DocumentIDs []uuid.UUID
	SessionID   *uuid.UUID
}

type DocumentService struct {
	resolver *ScopeResolver
	ingestor ingestion_engine.Ingestor
	store    *docstore.Store
}

func NewDocumentService(resolver *ScopeResolver, ingestor ingestion_engine.Ingestor, store *docstore.Store) *DocumentService {
	return &DocumentService{resolver: resolver, ingestor: ingestor, store: store}
}

// Upload checks the file count before resolving the scope, so a rejected
// anonymous upload never opens a session.
func (s *DocumentService) Upload(ctx context.Context, userID, sessionID *uuid.UUID, files []ingestion_engine.UploadFile) (*UploadResult, error) {
	if err := s.ingestor.CheckFileCount(len(files)); err != nil {
		return nil, err
	}

	scope, err := s.resolver.ResolveForUpload(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ids, err := s.ingestor.Ingest(ctx, scope, files)
	if err != nil {
		return nil, err
	}

	res := &UploadResult{DocumentIDs: ids}
	if scope.Kind() == models.ScopeSession {
		id := scope.ID()
		res.SessionID = &id
	}
	return res, nil
}

// List returns the caller's documents, newest first.
func (s *DocumentService) List(ctx context.Context, userID, sessionID *uuid.UUID) ([]models.Document, error) {
	scope, err := s.resolver.Resolve(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, scope)
}
