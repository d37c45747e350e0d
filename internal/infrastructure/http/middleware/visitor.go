package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

type contextKey string

const visitorContextKey contextKey = "visitor_id"

// visitorSessionKey is the session entry holding the visitor ID.
const visitorSessionKey = "visitor_id"

// Visitor loads the scs session and makes sure it carries a visitor ID,
// minting one on the first request. Handlers read it with
// VisitorIDFromContext.
func Visitor(sessions *scs.SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return sessions.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := sessions.GetString(ctx, visitorSessionKey)
			if id == "" {
				id = uuid.NewString()
				sessions.Put(ctx, visitorSessionKey, id)
			}

			next.ServeHTTP(w, r.WithContext(WithVisitorID(ctx, id)))
		}))
	}
}

// WithVisitorID stores the visitor ID in ctx.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorContextKey, id)
}

// VisitorIDFromContext extracts the visitor ID from request context
func VisitorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorContextKey).(string)
	return id, ok && id != ""
}
