package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

const testDim = 768

// newTestClient connects to TEST_DATABASE_URL, a disposable Postgres with pgvector.
func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	c, err := NewDatabaseClient(context.Background(), &config.Config{
		DatabaseURL: dsn,
		EmbedDim:    testDim,
		DBTimeout:   10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func unitVec(axis int) []float32 {
	v := make([]float32, testDim)
	v[axis] = 1
	return v
}

func TestDatabaseClient_ScopedSearch(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mine := &models.Session{ID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	theirs := &models.Session{ID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, c.CreateSession(ctx, mine))
	require.NoError(t, c.CreateSession(ctx, theirs))

	myDoc := models.Document{ID: uuid.New(), CreatedAt: now, Metadata: map[string]any{"filename": "a.pdf"}, SessionID: uuid.NullUUID{UUID: mine.ID, Valid: true}}
	theirDoc := models.Document{ID: uuid.New(), CreatedAt: now, Metadata: map[string]any{}, SessionID: uuid.NullUUID{UUID: theirs.ID, Valid: true}}
	require.NoError(t, c.InsertDocumentsWithChunks(ctx, []models.Document{myDoc, theirDoc}, []models.EmbeddedChunk{
		{ID: uuid.New(), CreatedAt: now, DocumentID: myDoc.ID, Content: "near", Metadata: map[string]any{"chunk_index": 0}, Embedding: unitVec(0)},
		{ID: uuid.New(), CreatedAt: now, DocumentID: myDoc.ID, Content: "far", Metadata: map[string]any{"chunk_index": 1}, Embedding: unitVec(1)},
		{ID: uuid.New(), CreatedAt: now, DocumentID: theirDoc.ID, Content: "near", Embedding: unitVec(0)},
	}))

	scope := models.SessionScope(mine.ID)
	got, err := c.SearchChunks(ctx, scope, unitVec(0), 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Content)
	assert.Equal(t, myDoc.ID, got[1].DocumentID)
	assert.InDelta(t, 0, got[0].Distance, 1e-6)

	unknown := uuid.New()
	_, err = c.SearchChunks(ctx, scope, unitVec(0), 5, []uuid.UUID{theirDoc.ID, unknown})
	var notFound *core.DocumentIDsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ElementsMatch(t, []uuid.UUID{theirDoc.ID, unknown}, notFound.MissingIDs)

	docs, err := c.ListDocuments(ctx, scope)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].Metadata["filename"])
}

func TestDatabaseClient_ScopedSearchUnderCrowdedIndex(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	newSession := func() uuid.UUID {
		s := &models.Session{ID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, c.CreateSession(ctx, s))
		return s.ID
	}

	var docs []models.Document
	var chunks []models.EmbeddedChunk
	for range 300 {
		d := models.Document{ID: uuid.New(), CreatedAt: now, SessionID: uuid.NullUUID{UUID: newSession(), Valid: true}}
		docs = append(docs, d)
		chunks = append(chunks, models.EmbeddedChunk{ID: uuid.New(), CreatedAt: now, DocumentID: d.ID, Content: "crowd", Embedding: unitVec(0)})
	}
	mine := newSession()
	myDoc := models.Document{ID: uuid.New(), CreatedAt: now, SessionID: uuid.NullUUID{UUID: mine, Valid: true}}
	docs = append(docs, myDoc)
	chunks = append(chunks, models.EmbeddedChunk{ID: uuid.New(), CreatedAt: now, DocumentID: myDoc.ID, Content: "mine", Embedding: unitVec(1)})
	require.NoError(t, c.InsertDocumentsWithChunks(ctx, docs, chunks))

	got, err := c.SearchChunks(ctx, models.SessionScope(mine), unitVec(0), 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Content)
}

func TestDatabaseClient_RejectsDoubleOwnership(t *testing.T) {
	c := newTestClient(t)
	doc := models.Document{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		SessionID: uuid.NullUUID{UUID: uuid.New(), Valid: true},
		UserID:    uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}
	err := c.InsertDocumentsWithChunks(context.Background(), []models.Document{doc}, nil)
	assert.ErrorIs(t, err, models.ErrOwnership)
}

func TestDatabaseClient_UsersAndExpiry(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC()

	email := uuid.NewString() + "@example.com"
	require.NoError(t, c.CreateUser(ctx, &models.User{ID: uuid.New(), Email: email, PasswordHash: "h", CreatedAt: now, UpdatedAt: now}))
	err := c.CreateUser(ctx, &models.User{ID: uuid.New(), Email: email, PasswordHash: "h", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, core.ErrUserExists)

	old := &models.Session{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, c.CreateSession(ctx, old))

	deleted, err := c.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Contains(t, deleted, old.ID)

	gone, err := c.GetSession(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
