package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/docscope/internal/core"
)

// EmbedderConfig tunes the embedding adapter.
//
// Dim:       required vector length; 0 skips the check.
// BatchSize: texts per provider request; larger inputs are split sequentially.
// Timeout:   deadline of each provider request.
type EmbedderConfig struct {
	Dim       int
	BatchSize int
	Timeout   time.Duration
}

// embedAPI is the raw provider surface, split out so batching and validation can be tested.
type embedAPI interface {
	embedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	embedQuery(ctx context.Context, text string) ([]float32, error)
}

type GeminiEmbedder struct {
	api    embedAPI
	client *genai.Client
	cfg    EmbedderConfig
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, cfg EmbedderConfig) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return newEmbedder(&geminiEmbedAPI{client: cl, modelName: modelName}, cl, cfg), nil
}

func newEmbedder(api embedAPI, client *genai.Client, cfg EmbedderConfig) *GeminiEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &GeminiEmbedder{api: api, client: client, cfg: cfg}
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// EmbedBatch embeds texts in order. Any failure, including a short or
// malformed response, fails the whole call with *core.EmbeddingGenerationError.
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.cfg.BatchSize {
		end := min(start+g.cfg.BatchSize, len(texts))
		part := texts[start:end]

		vecs, err := g.withTimeout(ctx, func(ctx context.Context) ([][]float32, error) {
			return g.api.embedDocuments(ctx, part)
		})
		if err != nil {
			return nil, &core.EmbeddingGenerationError{Err: err}
		}
		if len(vecs) != len(part) {
			return nil, &core.EmbeddingGenerationError{
				Err: fmt.Errorf("provider returned %d embeddings for %d texts", len(vecs), len(part)),
			}
		}
		for _, v := range vecs {
			if err := g.checkVector(v); err != nil {
				return nil, &core.EmbeddingGenerationError{Err: err}
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// EmbedQuery embeds a single retrieval query.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.withTimeout(ctx, func(ctx context.Context) ([][]float32, error) {
		v, err := g.api.embedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		return [][]float32{v}, nil
	})
	if err != nil {
		return nil, &core.EmbeddingGenerationError{Err: err}
	}
	if err := g.checkVector(vecs[0]); err != nil {
		return nil, &core.EmbeddingGenerationError{Err: err}
	}
	return vecs[0], nil
}

func (g *GeminiEmbedder) checkVector(v []float32) error {
	if len(v) == 0 {
		return errors.New("provider returned an empty embedding")
	}
	if g.cfg.Dim > 0 && len(v) != g.cfg.Dim {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(v), g.cfg.Dim)
	}
	return nil
}

func (g *GeminiEmbedder) withTimeout(ctx context.Context, call func(context.Context) ([][]float32, error)) ([][]float32, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	return call(ctx)
}

type geminiEmbedAPI struct {
	client    *genai.Client
	modelName string
}

func (a *geminiEmbedAPI) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	em := a.client.EmbeddingModel(a.modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if e == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, e.Values)
	}
	return out, nil
}

func (a *geminiEmbedAPI) embedQuery(ctx context.Context, text string) ([]float32, error) {
	em := a.client.EmbeddingModel(a.modelName)
	em.TaskType = genai.TaskTypeRetrievalQuery

	resp, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Embedding == nil {
		return nil, nil
	}
	return resp.Embedding.Values, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
