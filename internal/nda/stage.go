package nda

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultStageTTL = 30 * time.Minute

// Stage holds in-progress form values for an unauthenticated visitor across
// a login redirect round-trip. It is a save-and-resume convenience, not a
// persistence guarantee: entries expire and the stash is in-memory only.
type Stage struct {
	ttl     time.Duration
	clock   func() time.Time
	mu      sync.Mutex
	entries map[string]stagedEntry
}

type stagedEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewStage constructs a stage with the given entry TTL.
func NewStage(ttl time.Duration, clock func() time.Time) *Stage {
	if ttl <= 0 {
		ttl = defaultStageTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Stage{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]stagedEntry),
	}
}

// StageDraft stashes the payload and returns a one-time resume token.
func (s *Stage) StageDraft(payload []byte) string {
	token := uuid.NewString()
	now := s.clock()
	s.mu.Lock()
	s.sweepLocked(now)
	s.entries[token] = stagedEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()
	return token
}

// TakeDraft removes and returns the staged payload for the token.
func (s *Stage) TakeDraft(token string) ([]byte, bool) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return nil, false
	}
	delete(s.entries, token)
	if now.After(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

func (s *Stage) sweepLocked(now time.Time) {
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}
