package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/contextutil"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

const (
	QuestionMaxLength = 1000
	DefaultTopK       = 5
	MaxTopK           = 20
	MaxDocumentIDs    = 20

	// NoAnswerText is returned whenever the answer step cannot produce a usable answer.
	NoAnswerText = "I don't know based on the provided documents."
)

const classifierSystemPrompt = `# Your Role
You validate user questions for a document Q&A system.

# Your Task
Return is_valid=true if the question is meaningful or requests a summary/overview
of the document contents. Mark invalid only if it is a placeholder (e.g. 'string',
'test'), a single token without context, nonsense, or unrelated to documents.

# Examples
Valid: 'What is contained within the document?'
Valid: 'Give me a summary of this document.'
Invalid: 'string'
Invalid: 'test'

# Response Format
Return ONLY valid JSON with this shape:
{ "is_valid": true/false }
`

var answerSystemPrompt = `# Your Role
You are a document Q&A assistant. Answer using ONLY the provided context.

# Your Task
1. Answer the user's question using the context.
2. If the answer is not in the context, respond with exactly:
` + NoAnswerText + `

# Response Format
Return ONLY valid JSON with this shape:
{ "answer": "..." }
`

// AskRequest is a question scoped to a user or a session.
type AskRequest struct {
	Question    string
	TopK        int
	UserID      *uuid.UUID
	SessionID   *uuid.UUID
	DocumentIDs []uuid.UUID
}

type QAService struct {
	resolver  *ScopeResolver
	retrieval *RetrievalService
	llm       core.LLMProvider
}

func NewQAService(resolver *ScopeResolver, retrieval *RetrievalService, llm core.LLMProvider) *QAService {
	return &QAService{resolver: resolver, retrieval: retrieval, llm: llm}
}

// Ask validates the request, resolves the scope, screens the question, retrieves
// context and answers from it. The scope and document ownership are checked
// before any model call.
func (s *QAService) Ask(ctx context.Context, req AskRequest) (string, error) {
	question, topK, ids, err := normalizeAsk(req)
	if err != nil {
		return "", err
	}

	scope, err := s.resolver.Resolve(ctx, req.UserID, req.SessionID)
	if err != nil {
		return "", err
	}

	if err := s.retrieval.CheckDocumentIDs(ctx, scope, ids); err != nil {
		return "", err
	}

	if !s.classify(ctx, question) {
		return "", core.ErrQuestionInvalid
	}

	chunks, err := s.retrieval.Retrieve(ctx, scope, question, topK, ids)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", core.ErrNoRelevantContext
	}

	return s.answer(ctx, question, chunks), nil
}

func normalizeAsk(req AskRequest) (string, int, []uuid.UUID, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", 0, nil, core.ErrQuestionEmpty
	}
	if utf8.RuneCountInString(question) > QuestionMaxLength {
		return "", 0, nil, fmt.Errorf("%w: at most %d characters", core.ErrQuestionTooLong, QuestionMaxLength)
	}

	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		return "", 0, nil, fmt.Errorf("%w: must be between 1 and %d", core.ErrInvalidTopK, MaxTopK)
	}

	ids, err := dedupeDocumentIDs(req.DocumentIDs, MaxDocumentIDs)
	if err != nil {
		return "", 0, nil, err
	}
	return question, topK, ids, nil
}

// dedupeDocumentIDs keeps first occurrences in order. Nil means no filter; an empty list is rejected.
func dedupeDocumentIDs(ids []uuid.UUID, limit int) ([]uuid.UUID, error) {
	if ids == nil {
		return nil, nil
	}
	if len(ids) == 0 {
		return nil, core.ErrDocumentIDsEmpty
	}
	if len(ids) > limit {
		return nil, fmt.Errorf("%w: at most %d", core.ErrTooManyDocumentIDs, limit)
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// classify fails open: any model or parse failure counts as a valid question.
func (s *QAService) classify(ctx context.Context, question string) bool {
	raw, err := s.llm.Generate(ctx, classifierSystemPrompt, question)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "question classifier unavailable, accepting question", "error", err)
		return true
	}
	var out struct {
		IsValid *bool `json:"is_valid"`
	}
	if err := json.Unmarshal([]byte(jsonPayload(raw)), &out); err != nil || out.IsValid == nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "question classifier returned malformed output, accepting question")
		return true
	}
	return *out.IsValid
}

// answer fails open to NoAnswerText.
func (s *QAService) answer(ctx context.Context, question string, chunks []models.RankedChunk) string {
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Content
	}
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(parts, "\n\n"), question)

	raw, err := s.llm.Generate(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "answer generation failed", "error", err)
		return NoAnswerText
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(jsonPayload(raw)), &out); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "answer generation returned malformed output")
		return NoAnswerText
	}
	if answer := strings.TrimSpace(out.Answer); answer != "" {
		return answer
	}
	return NoAnswerText
}

// jsonPayload strips a markdown code fence some models wrap JSON in.
func jsonPayload(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
