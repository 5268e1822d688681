// Package chat runs conversational turns over the retrieval pipeline.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/bull/imdb-assistant/internal/response"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session's history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one conversation. History is append-only and lives only in
// memory. Turns of a session are serialised.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex // held for a whole turn
	stateMu   sync.RWMutex
	turns     []Turn
	lastCards []response.MovieCard
}

// NewSession creates an empty session with a random id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// Turns returns a copy of the history.
func (s *Session) Turns() []Turn {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]Turn(nil), s.turns...)
}

// LastCards returns the cards parsed from the most recent assistant reply.
func (s *Session) LastCards() []response.MovieCard {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]response.MovieCard(nil), s.lastCards...)
}

func (s *Session) append(turn Turn) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.turns = append(s.turns, turn)
}

func (s *Session) setCards(cards []response.MovieCard) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastCards = cards
}

// Reset empties the history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.turns = nil
	s.lastCards = nil
}

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// SessionStore keeps live sessions in memory, keyed by id. Sessions idle for
// longer than the TTL are dropped.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

// NewSessionStore creates a store. ttl <= 0 uses DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{cache: cache.New(ttl, ttl/2), ttl: ttl}
}

// Get returns the session for id and refreshes its expiry.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	session := v.(*Session)
	s.cache.Set(id, session, cache.DefaultExpiration)
	return session, true
}

// GetOrCreate returns the session for id, or a new empty one when id is
// unknown or expired. Callers must persist the returned session's ID.
func (s *SessionStore) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.Get(id); ok {
		return session
	}
	session := NewSession()
	s.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

// Delete forgets a session.
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}
