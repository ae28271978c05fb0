package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ScopeKind tags which owner a Scope refers to.
type ScopeKind int

const (
	// ScopeNone is the zero value; it is never a legal scope for reads or writes.
	ScopeNone ScopeKind = iota
	ScopeUser
	ScopeSession
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUser:
		return "user"
	case ScopeSession:
		return "session"
	default:
		return "none"
	}
}

// Scope is the ownership boundary every document and retrieval operation runs under:
// either one authenticated user or one anonymous session.
type Scope struct {
	kind ScopeKind
	id   uuid.UUID
}

// UserScope binds a scope to an authenticated user.
func UserScope(id uuid.UUID) Scope {
	return Scope{kind: ScopeUser, id: id}
}

// SessionScope binds a scope to an anonymous session.
func SessionScope(id uuid.UUID) Scope {
	return Scope{kind: ScopeSession, id: id}
}

func (s Scope) Kind() ScopeKind { return s.kind }

func (s Scope) ID() uuid.UUID { return s.id }

// IsZero reports whether no owner is set.
func (s Scope) IsZero() bool {
	return s.kind == ScopeNone || s.id == uuid.Nil
}

// Columns translates the scope into the (session_id, user_id) pair used by the
// persistence layer. Exactly one of the returned values is valid for a non-zero scope.
func (s Scope) Columns() (sessionID, userID uuid.NullUUID) {
	switch s.kind {
	case ScopeUser:
		userID = uuid.NullUUID{UUID: s.id, Valid: true}
	case ScopeSession:
		sessionID = uuid.NullUUID{UUID: s.id, Valid: true}
	}
	return sessionID, userID
}

func (s Scope) String() string {
	if s.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", s.kind, s.id)
}
