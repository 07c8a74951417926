package token

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const DefaultTTL = 300 * time.Second

var ErrNotFound = errors.New("invalid or expired download token")

// Request holds the parameters captured by prepare and replayed by trigger.
type Request struct {
	URL       string
	Format    string
	Quality   string
	FormatID  string
	Cookies   []json.RawMessage
	CreatedAt time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSingleUse makes Consume drop the token after a successful trigger.
func WithSingleUse(on bool) Option {
	return func(s *Store) { s.singleUse = on }
}

type Store struct {
	mu        sync.Mutex
	data      map[string]Request
	ttl       time.Duration
	singleUse bool
	now       func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]Request),
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores req under a fresh random token and sweeps expired entries.
func (s *Store) Put(req Request) string {
	tok := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	req.CreatedAt = now
	s.data[tok] = req
	s.sweepLocked(now)
	return tok
}

// Get returns the request for tok. Expired tokens are reported as ErrNotFound
// even if no sweep has removed them yet.
func (s *Store) Get(tok string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.data[tok]
	if !ok || s.expired(req, s.now()) {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// Consume drops tok when single-use mode is on. It reports whether the token was removed.
func (s *Store) Consume(tok string) bool {
	if !s.singleUse {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[tok]; !ok {
		return false
	}
	delete(s.data, tok)
	return true
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) SingleUse() bool {
	return s.singleUse
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for k, v := range s.data {
		if s.expired(v, now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(req Request, now time.Time) bool {
	return now.Sub(req.CreatedAt) > s.ttl
}
