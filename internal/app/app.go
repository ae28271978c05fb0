package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/markdave123-py/docscope/internal/api/handlers"
	"github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/auth"
	"github.com/markdave123-py/docscope/internal/core/cache"
	db "github.com/markdave123-py/docscope/internal/core/database"
	"github.com/markdave123-py/docscope/internal/core/docstore"
	"github.com/markdave123-py/docscope/internal/core/encryption"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/core/llm"
	objectclient "github.com/markdave123-py/docscope/internal/core/object-client"
	"github.com/markdave123-py/docscope/internal/services"
)

// Deps are the external collaborators. NewApp builds them from the config.
type Deps struct {
	DB        core.DbClient
	Objects   core.ObjectClient // nil disables archival
	Cache     *cache.EmbeddingCache
	Embedder  core.EmbeddingProvider
	LLM       core.LLMProvider
	Extractor core.DocumentExtractor
}

type App struct {
	DB      core.DbClient
	Objects core.ObjectClient
	Server  *Server

	closers []io.Closer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	deps, closers, err := OpenDeps(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel, llm.EmbedderConfig{
		Dim:       cfg.EmbedDim,
		BatchSize: cfg.EmbedBatchSize,
		Timeout:   cfg.EmbedTimeout,
	})
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}
	closers = append(closers, embedder)

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, cfg.GenTimeout)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("couldn't initialize the chat model, %w", err)
	}
	closers = append(closers, llmProvider)

	deps.Embedder = embedder
	deps.LLM = llmProvider
	deps.Extractor = ingestion_engine.NewDocconvExtractor(false)

	a, err := Build(cfg, deps)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	a.closers = closers
	return a, nil
}

// OpenDeps connects the database, object storage and embedding cache.
// The returned closers release them.
func OpenDeps(ctx context.Context, cfg *config.Config) (Deps, []io.Closer, error) {
	var deps Deps

	dbClient, err := db.Open(ctx, cfg)
	if err != nil {
		return deps, nil, err
	}
	slog.Info("database initialized and ready")
	deps.DB = dbClient
	closers := []io.Closer{dbClient}

	if cfg.ObjectStorageEnabled() {
		objClient, err := objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			closeAll(closers)
			return deps, nil, err
		}
		deps.Objects = objClient
		slog.Info("object client initialized and ready")
	} else {
		slog.Info("object storage not configured, originals will not be archived")
	}

	deps.Cache = cache.Disabled()
	if rc := cache.Shared(cfg.EmbeddingCacheRedisURL); rc != nil {
		deps.Cache = cache.NewEmbeddingCache(rc, cfg.EmbeddingCacheTimeout, cfg.EmbedDim)
		closers = append(closers, rc)
	}
	return deps, closers, nil
}

// Build wires services and handlers on top of deps.
func Build(cfg *config.Config, deps Deps) (*App, error) {
	if deps.DB == nil || deps.Embedder == nil || deps.LLM == nil || deps.Extractor == nil {
		return nil, errors.New("app: database, embedder, chat model and extractor are required")
	}

	sealer, err := encryption.NewSealer([]byte(cfg.DataEncryptionKey))
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiresMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	store := docstore.New(
		deps.DB,
		ingestion_engine.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		deps.Embedder,
		deps.Cache,
		sealer,
		docstore.Config{
			DocCacheTTL:   time.Duration(cfg.EmbeddingCacheDocTTLSecs) * time.Second,
			QueryCacheTTL: time.Duration(cfg.EmbeddingCacheQueryTTLSecs) * time.Second,
		},
	)

	ingCfg := &ingestion_engine.IngestConfig{
		MaxFiles:         cfg.UploadMaxFiles,
		MaxFileSizeBytes: cfg.UploadMaxFileSizeBytes,
	}
	ingestor := ingestion_engine.NewDocumentIngestor(store, deps.Objects, deps.Extractor, ingCfg)

	sessions := services.NewSessionService(deps.DB, time.Duration(cfg.SessionExpiresMinutes)*time.Minute)
	resolver := services.NewScopeResolver(sessions)
	retrieval := services.NewRetrievalService(resolver, store)

	server := NewServer(cfg, Handlers{
		Tokens:    tokens,
		Auth:      handlers.NewAuthHandler(services.NewUserService(deps.DB), tokens),
		Documents: handlers.NewDocumentHandler(services.NewDocumentService(resolver, ingestor, store), ingCfg),
		Chat:      handlers.NewChatHandler(services.NewQAService(resolver, retrieval, deps.LLM)),
		Sessions:  handlers.NewSessionHandler(sessions),
	})

	return &App{
		DB:      deps.DB,
		Objects: deps.Objects,
		Server:  server,
	}, nil
}

func (a *App) Close() {
	closeAll(a.closers)
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
