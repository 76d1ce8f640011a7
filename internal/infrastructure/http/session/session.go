// Package session tracks anonymous browser sessions for the shelf page. A
// session is a UUID carried in a cookie; the basket itself lives in the
// basket repository under the same ID.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/infrastructure/config"
)

// Session represents a browser session
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	flash     string
}

// Store keeps session expiry and flash messages in memory and sweeps expired
// sessions on an interval.
type Store struct {
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	onExpire []func(ctx context.Context, id string)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	now      func() time.Time
}

// NewStore creates a session store
func NewStore(cfg config.SessionConfig, logger *zap.Logger) (*Store, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}

	return &Store{
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.SecureCookie,
		secret:     secret,
		logger:     logger.Named("sessions"),
		sessions:   make(map[string]*Session),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}, nil
}

// OnExpire registers fn to run for every session removed by Sweep.
func (s *Store) OnExpire(fn func(ctx context.Context, id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = append(s.onExpire, fn)
}

// Get retrieves the live session named by the request cookie. An unknown but
// well-formed ID is adopted so that baskets held in a shared repository
// survive restarts.
func (s *Store) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return nil, false
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[cookie.Value]
	if !exists {
		session = &Session{ID: cookie.Value, CreatedAt: now}
		s.sessions[session.ID] = session
	} else if now.After(session.ExpiresAt) {
		return nil, false
	}
	session.ExpiresAt = now.Add(s.ttl)

	copied := *session
	return &copied, true
}

// New creates a new session
func (s *Store) New() *Session {
	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	copied := *session
	return &copied
}

// Save writes the session cookie
func (s *Store) Save(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Delete forgets a session and expires its cookie
func (s *Store) Delete(w http.ResponseWriter, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetFlash stores a one-shot message for the next render.
func (s *Store) SetFlash(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.flash = message
	}
}

// PopFlash returns and clears the pending message.
func (s *Store) PopFlash(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ""
	}
	message := session.flash
	session.flash = ""
	return message
}

// Len returns the number of tracked sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CSRFToken derives the form token for a session.
func (s *Store) CSRFToken(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidCSRFToken compares token against the session's token in constant time.
func (s *Store) ValidCSRFToken(id, token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken(id)), []byte(token)) == 1
}

// Sweep removes expired sessions and runs the expiry hooks for each.
func (s *Store) Sweep(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	var expired []string
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	hooks := s.onExpire
	s.mu.Unlock()

	for _, id := range expired {
		for _, fn := range hooks {
			fn(ctx, id)
		}
	}

	if len(expired) > 0 {
		s.logger.Info("Expired sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Start sweeps expired sessions every interval until Stop.
func (s *Store) Start(interval time.Duration) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop started by Start and waits for it to exit.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.started.Load() {
			<-s.done
		}
	})
}
