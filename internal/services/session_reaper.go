package services

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/docscope/internal/contextutil"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/ingestion_engine"
	"github.com/markdave123-py/docscope/internal/models"
)

// SessionReaper deletes expired sessions with everything they own.
type SessionReaper struct {
	db  core.DbClient
	obj core.ObjectClient
	now func() time.Time
}

// NewSessionReaper builds a reaper; obj may be nil when nothing is archived.
func NewSessionReaper(db core.DbClient, obj core.ObjectClient) *SessionReaper {
	return &SessionReaper{db: db, obj: obj, now: time.Now}
}

// RunOnce deletes the expired sessions, whose documents and chunks cascade,
// then removes their archived originals. Object removal is best effort.
func (r *SessionReaper) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.db.DeleteExpiredSessions(ctx, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if r.obj != nil {
		for _, id := range ids {
			prefix := ingestion_engine.ArchivePrefix(models.SessionScope(id))
			n, err := r.obj.DeletePrefix(ctx, prefix)
			if err != nil {
				contextutil.LoggerFromContext(ctx).WarnContext(ctx, "removing archived session objects failed", "prefix", prefix, "removed", n, "error", err)
			}
		}
	}
	return len(ids), nil
}

// Run calls RunOnce immediately and then every interval until ctx is done.
func (r *SessionReaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := contextutil.LoggerFromContext(ctx).With("component", "session_reaper")
	logger.InfoContext(ctx, "session cleanup started", "interval", interval.String())
	for {
		n, err := r.RunOnce(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "session cleanup run failed", "error", err)
		} else {
			logger.InfoContext(ctx, "session cleanup run complete", "deleted_sessions", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
