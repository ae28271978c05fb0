package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

const uniqueViolation = "23505"

type DatabaseClient struct {
	db      *sql.DB
	timeout time.Duration
	// iterativeScan is set when the installed pgvector can keep scanning the
	// HNSW graph until enough rows pass the scope filter.
	iterativeScan bool
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	var vectorVersion string
	if err := db.QueryRowContext(ctx, `SELECT extversion FROM pg_extension WHERE extname = 'vector'`).Scan(&vectorVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pgvector version: %w", err)
	}

	return &DatabaseClient{
		db:            db,
		timeout:       cfg.DBTimeout,
		iterativeScan: supportsIterativeScan(vectorVersion),
	}, nil
}

// supportsIterativeScan reports whether pgvector version v (e.g. "0.8.0") has hnsw.iterative_scan.
func supportsIterativeScan(v string) bool {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return false
	}
	return major > 0 || minor >= 8
}

// efSearch widens the HNSW candidate list for larger limits. pgvector caps it at 1000.
func efSearch(limit int) int {
	return min(max(100, limit*10), 1000)
}

// buildDSN appends CA verification parameters when a certificate path is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	const q = `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return core.ErrUserExists
	}
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	const q = `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Sessions

func (c *DatabaseClient) CreateSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	const q = `INSERT INTO sessions (id, created_at, expires_at) VALUES ($1, $2, $3)`
	_, err := c.db.ExecContext(ctx, q, session.ID, session.CreatedAt, session.ExpiresAt)
	return err
}

func (c *DatabaseClient) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	const q = `SELECT id, created_at, expires_at FROM sessions WHERE id = $1`
	var s models.Session
	err := c.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteExpiredSessions relies on ON DELETE CASCADE to remove the sessions'
// documents and chunks in the same statement.
func (c *DatabaseClient) DeleteExpiredSessions(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1 RETURNING id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Documents and chunks

// InsertDocumentsWithChunks writes every document and chunk in a single transaction.
func (c *DatabaseClient) InsertDocumentsWithChunks(ctx context.Context, docs []models.Document, chunks []models.EmbeddedChunk) error {
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return fmt.Errorf("document %s: %w", docs[i].ID, err)
		}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const qDoc = `
		INSERT INTO documents (id, created_at, metadata, session_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	docStmt, err := tx.PrepareContext(ctx, qDoc)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	for i := range docs {
		d := &docs[i]
		meta, err := marshalMetadata(d.Metadata)
		if err != nil {
			return err
		}
		if _, err := docStmt.ExecContext(ctx, d.ID, d.CreatedAt, meta, d.SessionID, d.UserID); err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}

	const qChunk = `
		INSERT INTO embedded_chunks (id, created_at, document_id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	chunkStmt, err := tx.PrepareContext(ctx, qChunk)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := marshalMetadata(ch.Metadata)
		if err != nil {
			return err
		}
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := chunkStmt.ExecContext(ctx, ch.ID, ch.CreatedAt, ch.DocumentID, ch.Content, meta, vec); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) ListDocuments(ctx context.Context, scope models.Scope) ([]models.Document, error) {
	col, owner, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	q := `
		SELECT id, created_at, metadata, session_id, user_id
		FROM documents d
		WHERE ` + col + ` = $1
		ORDER BY created_at DESC, id
	`
	rows, err := c.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var (
			d    models.Document
			meta []byte
		)
		if err := rows.Scan(&d.ID, &d.CreatedAt, &meta, &d.SessionID, &d.UserID); err != nil {
			return nil, err
		}
		if d.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) MissingDocumentIDs(ctx context.Context, scope models.Scope, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return missingDocumentIDs(ctx, c.db, scope, ids)
}

// SearchChunks runs the ownership check and the ranking in one read-only,
// repeatable-read transaction so both observe the same snapshot.
func (c *DatabaseClient) SearchChunks(ctx context.Context, scope models.Scope, queryVec []float32, limit int, filter []uuid.UUID) ([]models.ScoredChunk, error) {
	col, owner, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}
	if filter != nil && len(filter) == 0 {
		return nil, core.ErrDocumentIDsEmpty
	}
	if limit <= 0 {
		return nil, core.ErrInvalidTopK
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// pgvector applies the scope filter after the approximate index scan.
	if _, err := tx.ExecContext(ctx, `SELECT set_config('hnsw.ef_search', $1, true)`, strconv.Itoa(efSearch(limit))); err != nil {
		return nil, fmt.Errorf("set hnsw.ef_search: %w", err)
	}
	if c.iterativeScan {
		if _, err := tx.ExecContext(ctx, `SELECT set_config('hnsw.iterative_scan', 'strict_order', true)`); err != nil {
			return nil, fmt.Errorf("set hnsw.iterative_scan: %w", err)
		}
	}

	args := []any{pgvector.NewVector(queryVec), owner, limit}
	q := `
		SELECT c.id, c.created_at, c.document_id, c.content, c.metadata, c.embedding <=> $1 AS distance
		FROM embedded_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE ` + col + ` = $2`
	if filter != nil {
		missing, err := missingDocumentIDs(ctx, tx, scope, filter)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, &core.DocumentIDsNotFoundError{MissingIDs: missing}
		}
		q += ` AND d.id = ANY($4::uuid[])`
		args = append(args, uuidStrings(filter))
	}
	q += `
		ORDER BY c.embedding <=> $1, c.created_at, c.id
		LIMIT $3`

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			sc   models.ScoredChunk
			meta []byte
		)
		if err := rows.Scan(&sc.ID, &sc.CreatedAt, &sc.DocumentID, &sc.Content, &meta, &sc.Distance); err != nil {
			return nil, err
		}
		if sc.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func missingDocumentIDs(ctx context.Context, qr querier, scope models.Scope, ids []uuid.UUID) ([]uuid.UUID, error) {
	col, owner, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}
	q := `
		SELECT DISTINCT req.id
		FROM unnest($1::uuid[]) AS req(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM documents d WHERE d.id = req.id AND ` + col + ` = $2
		)
	`
	rows, err := qr.QueryContext(ctx, q, uuidStrings(ids), owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].String() < missing[j].String() })
	return missing, nil
}

// scopeColumn translates a scope into the owning column of documents (aliased d) and its value.
func scopeColumn(scope models.Scope) (string, uuid.UUID, error) {
	if scope.IsZero() {
		return "", uuid.Nil, core.ErrScopeRequired
	}
	sessionID, userID := scope.Columns()
	if userID.Valid {
		return "d.user_id", userID.UUID, nil
	}
	return "d.session_id", sessionID.UUID, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalMetadata(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}
