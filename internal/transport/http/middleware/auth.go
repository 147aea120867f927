package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"clinic/internal/domain/auth"
	"clinic/internal/domain/session"
	"clinic/internal/transport/http/api"
)

// SessionResolver turns token claims into the live server-side session.
type SessionResolver interface {
	Resolve(ctx context.Context, user auth.UserContext) (session.Session, error)
}

// Auth reads a bearer token and, when it verifies, puts the user on the context.
// Requests without a valid token pass through untouched.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				EmployeeID: claims.EmployeeID,
				CategoryID: claims.CategoryID,
				SessionID:  claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that do not belong to a live session and
// makes the session available through GetSession.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			sess, err := resolver.Resolve(r.Context(), user)
			if err != nil {
				if !errors.Is(err, auth.ErrSessionNotFound) {
					slog.Warn("session lookup failed", "requestId", reqID, "err", err)
				}
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func GetSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(session.Session)
	return sess, ok
}

// WithSession stores a resolved session on ctx for GetSession.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}
