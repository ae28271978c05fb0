package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestScope_Columns(t *testing.T) {
	id := uuid.New()

	sess, user := UserScope(id).Columns()
	assert.False(t, sess.Valid)
	assert.True(t, user.Valid)
	assert.Equal(t, id, user.UUID)

	sess, user = SessionScope(id).Columns()
	assert.True(t, sess.Valid)
	assert.False(t, user.Valid)
	assert.Equal(t, id, sess.UUID)

	sess, user = Scope{}.Columns()
	assert.False(t, sess.Valid)
	assert.False(t, user.Valid)
}

func TestScope_IsZero(t *testing.T) {
	assert.True(t, Scope{}.IsZero())
	assert.True(t, UserScope(uuid.Nil).IsZero())
	assert.False(t, SessionScope(uuid.New()).IsZero())
	assert.Equal(t, "none", Scope{}.String())
}

func TestDocument_Validate(t *testing.T) {
	id := uuid.NullUUID{UUID: uuid.New(), Valid: true}

	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{name: "user only", doc: Document{UserID: id}},
		{name: "session only", doc: Document{SessionID: id}},
		{name: "both", doc: Document{UserID: id, SessionID: id}, wantErr: true},
		{name: "neither", doc: Document{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOwnership)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDocument_Scope(t *testing.T) {
	id := uuid.New()
	doc := Document{SessionID: uuid.NullUUID{UUID: id, Valid: true}}
	assert.Equal(t, SessionScope(id), doc.Scope())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{CreatedAt: now.Add(-time.Hour), ExpiresAt: now}

	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}
