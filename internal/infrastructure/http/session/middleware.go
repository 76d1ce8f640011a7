package session

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey struct{}

// CSRFFormField is the hidden form field carrying the token.
const CSRFFormField = "csrf_token"

// CSRFHeader is accepted in place of the form field.
const CSRFHeader = "X-CSRF-Token"

// Middleware loads or creates the session, refreshes its cookie and places it
// in the request context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.Get(r)
		if !ok {
			session = s.New()
			s.logger.Debug("Session created", zap.String("session_id", session.ID))
		}
		s.Save(w, session)

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), session)))
	})
}

// CSRF rejects state-changing requests without the session's token.
func (s *Store) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		session, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		token := r.Header.Get(CSRFHeader)
		if token == "" {
			token = r.FormValue(CSRFFormField)
		}

		if !s.ValidCSRFToken(session.ID, token) {
			s.logger.Warn("CSRF token validation failed",
				zap.String("session_id", session.ID),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewContext returns ctx carrying session.
func NewContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// FromContext returns the session placed by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*Session)
	return session, ok
}
