package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/pizza-shop/internal/domain/catalog"
	"github.com/xenking/pizza-shop/internal/domain/order"
)

// sessionCookie names the cookie binding a browser to its order builder.
const sessionCookie = "ps_session"

// session pairs one order builder with a mutex serializing access to it.
// Each user interaction runs to completion under the lock before the next
// is processed.
type session struct {
	mu      sync.Mutex
	builder *order.Builder
}

// Sessions tracks one order builder per active session, evicting sessions
// that have been idle longer than the TTL.
type Sessions struct {
	menu *catalog.Catalog
	ttl  time.Duration

	mu       sync.Mutex
	entries  map[string]*session
	lastSeen map[string]time.Time
}

// NewSessions creates a session registry. Builders read prices from menu.
func NewSessions(menu *catalog.Catalog, ttl time.Duration) *Sessions {
	return &Sessions{
		menu:     menu,
		ttl:      ttl,
		entries:  make(map[string]*session),
		lastSeen: make(map[string]time.Time),
	}
}

// acquire returns the session for id, creating an empty one on first use,
// and marks it as recently active.
func (s *Sessions) acquire(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.entries[id]
	if !ok {
		sess = &session{builder: order.NewBuilder(s.menu)}
		s.entries[id] = sess
	}
	s.lastSeen[id] = time.Now()
	return sess
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictIdle drops sessions idle longer than the TTL.
func (s *Sessions) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seen := range s.lastSeen {
		if now.Sub(seen) >= s.ttl {
			delete(s.entries, id)
			delete(s.lastSeen, id)
		}
	}
}

// StartCleanup launches a goroutine that periodically evicts idle sessions
// until ctx is cancelled.
func (s *Sessions) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evictIdle(now)
			}
		}
	}()
}

// session resolves the request's session, issuing a new session cookie when
// the request carries none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.sessions.acquire(id)
}
