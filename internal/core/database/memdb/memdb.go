// Package memdb is an in-memory core.DbClient with brute-force cosine ranking.
// It backs tests and DATABASE_URL=memory:// runs; data lives for the process lifetime.
package memdb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

// Store keeps every table behind one RWMutex, so each method observes and
// produces a consistent state.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	sessions map[uuid.UUID]models.Session
	docs     map[uuid.UUID]models.Document
	chunks   []models.EmbeddedChunk
	closed   bool
}

var _ core.DbClient = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		sessions: make(map[uuid.UUID]models.Session),
		docs:     make(map[uuid.UUID]models.Document),
	}
}

var errClosed = errors.New("memdb: store is closed")

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return core.ErrUserExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		return fmt.Errorf("session %s: expires_at must be after created_at", session.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// DeleteExpiredSessions cascades to the sessions' documents and chunks.
func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}

	var expired []uuid.UUID
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	if len(expired) == 0 {
		return nil, nil
	}

	gone := make(map[uuid.UUID]bool)
	for id, d := range s.docs {
		if d.SessionID.Valid && !s.sessionExists(d.SessionID.UUID) {
			gone[id] = true
			delete(s.docs, id)
		}
	}
	kept := s.chunks[:0]
	for _, ch := range s.chunks {
		if !gone[ch.DocumentID] {
			kept = append(kept, ch)
		}
	}
	s.chunks = kept

	sort.Slice(expired, func(i, j int) bool { return expired[i].String() < expired[j].String() })
	return expired, nil
}

func (s *Store) sessionExists(id uuid.UUID) bool {
	_, ok := s.sessions[id]
	return ok
}

// InsertDocumentsWithChunks checks every row before writing any, so a failed call leaves no trace.
func (s *Store) InsertDocumentsWithChunks(_ context.Context, docs []models.Document, chunks []models.EmbeddedChunk) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	batch := make(map[uuid.UUID]bool, len(docs))
	for i := range docs {
		d := &docs[i]
		if err := d.Validate(); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
		if _, dup := s.docs[d.ID]; dup || batch[d.ID] {
			return fmt.Errorf("document %s already exists", d.ID)
		}
		if d.SessionID.Valid && !s.sessionExists(d.SessionID.UUID) {
			return fmt.Errorf("document %s: session %s does not exist", d.ID, d.SessionID.UUID)
		}
		if d.UserID.Valid {
			if _, ok := s.users[d.UserID.UUID]; !ok {
				return fmt.Errorf("document %s: user %s does not exist", d.ID, d.UserID.UUID)
			}
		}
		batch[d.ID] = true
	}
	dim := s.dimension()
	for i := range chunks {
		ch := &chunks[i]
		if !batch[ch.DocumentID] {
			return fmt.Errorf("chunk %s references unknown document %s", ch.ID, ch.DocumentID)
		}
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", ch.ID)
		}
		if dim == 0 {
			dim = len(ch.Embedding)
		}
		if len(ch.Embedding) != dim {
			return fmt.Errorf("chunk %s: expected %d dimensions, not %d", ch.ID, dim, len(ch.Embedding))
		}
	}

	for _, d := range docs {
		d.Metadata = maps.Clone(d.Metadata)
		s.docs[d.ID] = d
	}
	for _, ch := range chunks {
		ch.Metadata = maps.Clone(ch.Metadata)
		ch.Embedding = append([]float32(nil), ch.Embedding...)
		s.chunks = append(s.chunks, ch)
	}
	return nil
}

func (s *Store) dimension() int {
	if len(s.chunks) == 0 {
		return 0
	}
	return len(s.chunks[0].Embedding)
}

func (s *Store) ListDocuments(_ context.Context, scope models.Scope) ([]models.Document, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}

	var out []models.Document
	for _, d := range s.docs {
		if owns(scope, d) {
			d.Metadata = maps.Clone(d.Metadata)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) MissingDocumentIDs(_ context.Context, scope models.Scope, ids []uuid.UUID) ([]uuid.UUID, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	return s.missing(scope, ids), nil
}

func (s *Store) missing(scope models.Scope, ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if d, ok := s.docs[id]; !ok || !owns(scope, d) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// SearchChunks holds the read lock across the ownership check and the ranking.
func (s *Store) SearchChunks(_ context.Context, scope models.Scope, queryVec []float32, limit int, filter []uuid.UUID) ([]models.ScoredChunk, error) {
	if scope.IsZero() {
		return nil, core.ErrScopeRequired
	}
	if filter != nil && len(filter) == 0 {
		return nil, core.ErrDocumentIDsEmpty
	}
	if limit <= 0 {
		return nil, core.ErrInvalidTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}

	var allowed map[uuid.UUID]bool
	if filter != nil {
		if missing := s.missing(scope, filter); len(missing) > 0 {
			return nil, &core.DocumentIDsNotFoundError{MissingIDs: missing}
		}
		allowed = make(map[uuid.UUID]bool, len(filter))
		for _, id := range filter {
			allowed[id] = true
		}
	}

	var scored []models.ScoredChunk
	for _, ch := range s.chunks {
		d, ok := s.docs[ch.DocumentID]
		if !ok || !owns(scope, d) {
			continue
		}
		if allowed != nil && !allowed[ch.DocumentID] {
			continue
		}
		out := ch
		out.Metadata = maps.Clone(ch.Metadata)
		out.Embedding = nil
		scored = append(scored, models.ScoredChunk{EmbeddedChunk: out, Distance: CosineDistance(ch.Embedding, queryVec)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func owns(scope models.Scope, d models.Document) bool {
	sessionID, userID := scope.Columns()
	return d.SessionID == sessionID && d.UserID == userID
}

// CosineDistance is 1 - cosine similarity, matching pgvector's <=> operator.
// A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
