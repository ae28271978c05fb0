package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/docscope/internal/contextutil"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// ErrorWriter renders err as the API error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// OptionalJWT attaches the user id of a valid bearer token to the request
// context. Requests without an Authorization header pass through anonymously;
// a present but unusable token is rejected.
func OptionalJWT(tokens TokenParser, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.Parse(token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = contextutil.WithLogger(ctx, contextutil.LoggerFromContext(ctx).With("user_id", userID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reports false when the request carries no bearer credentials at all.
func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, _ := strings.Cut(auth, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user id, or nil for anonymous requests.
func UserIDFromContext(ctx context.Context) *uuid.UUID {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
