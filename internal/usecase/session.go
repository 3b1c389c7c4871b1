package usecase

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain"
)

// BrowseSession remembers a shopper's last search so returning from a product
// detail page does not recompute or refetch. It also hands out generation
// tickets so that only the newest search of a session may publish results.
type BrowseSession struct {
	ID string

	mu         sync.Mutex
	generation uint64
	query      string
	filters    domain.Filters
	results    []domain.ScoredProduct
	lastUsed   time.Time
}

// Begin starts a new search and returns its generation ticket
func (s *BrowseSession) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.lastUsed = time.Now()
	return s.generation
}

// IsCurrent reports whether no newer search started after gen
func (s *BrowseSession) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// Remember stores the result of search gen. Results of superseded searches
// are dropped and false is returned.
func (s *BrowseSession) Remember(gen uint64, query string, filters domain.Filters, results []domain.ScoredProduct) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.query = query
	s.filters = filters
	s.results = results
	return true
}

// Query returns the last remembered query
func (s *BrowseSession) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Snapshot returns the remembered search, if any
func (s *BrowseSession) Snapshot() (string, domain.Filters, []domain.ScoredProduct, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query, s.filters, s.results, s.results != nil
}

// Navigate applies the invalidation rule for a page transition: the remembered
// search survives only a move to a product detail page.
func (s *BrowseSession) Navigate(toProductDetail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	if toProductDetail {
		return
	}
	s.query = ""
	s.filters = domain.Filters{}
	s.results = nil
}

func (s *BrowseSession) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// SessionStore keeps browse sessions in memory and evicts idle ones
type SessionStore struct {
	sessions map[string]*BrowseSession
	mutex    sync.RWMutex
	ttl      time.Duration
}

// NewSessionStore creates a session store; sessions idle longer than ttl are evicted
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*BrowseSession),
		ttl:      ttl,
	}
}

// Create starts a new browse session
func (st *SessionStore) Create() *BrowseSession {
	session := &BrowseSession{
		ID:       uuid.NewString(),
		lastUsed: time.Now(),
	}

	st.mutex.Lock()
	st.sessions[session.ID] = session
	st.mutex.Unlock()

	log.Printf("[SESSION] Created %s", session.ID)
	return session
}

// Get returns a live session or ErrSessionNotFound
func (st *SessionStore) Get(id string) (*BrowseSession, error) {
	st.mutex.RLock()
	session, ok := st.sessions[id]
	st.mutex.RUnlock()

	if !ok || session.idleSince(time.Now()) > st.ttl {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EvictIdle removes sessions idle longer than the store TTL and returns how many were removed
func (st *SessionStore) EvictIdle() int {
	now := time.Now()

	st.mutex.Lock()
	defer st.mutex.Unlock()

	removed := 0
	for id, session := range st.sessions {
		if session.idleSince(now) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Size returns the current number of sessions
func (st *SessionStore) Size() int {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return len(st.sessions)
}

// RunEviction evicts idle sessions every interval until stop is closed
func (st *SessionStore) RunEviction(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := st.EvictIdle(); n > 0 {
				log.Printf("[SESSION] Evicted %d idle sessions", n)
			}
		case <-stop:
			return
		}
	}
}
