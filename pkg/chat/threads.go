package chat

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/google/uuid"
)

const (
	threadTTL     = 30 * time.Minute
	sweepInterval = 5 * time.Minute

	// maxTurns bounds per-thread memory; older turns fall off the front.
	maxTurns = 50
)

// Turn is one message/reply pair in a thread.
type Turn struct {
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	At      time.Time `json:"at"`
}

// ThreadStore keeps short-lived conversation history per thread id.
// Threads expire after inactivity; the store is an in-process cache, not
// durable storage.
type ThreadStore struct {
	cache *gocache.Cache
}

func NewThreadStore() *ThreadStore {
	return &ThreadStore{cache: gocache.New(threadTTL, sweepInterval)}
}

// Ensure returns the given thread id, minting one when empty.
func (s *ThreadStore) Ensure(threadID string) string {
	if threadID != "" {
		return threadID
	}

	return "thread-" + uuid.New().String()[:8]
}

// Append records a turn and refreshes the thread's TTL.
func (s *ThreadStore) Append(threadID, message, reply string) {
	turns := s.History(threadID)

	turns = append(turns, Turn{Message: message, Reply: reply, At: time.Now().UTC()})
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	s.cache.Set(threadID, turns, gocache.DefaultExpiration)
}

// History returns the thread's recorded turns, oldest first.
func (s *ThreadStore) History(threadID string) []Turn {
	if cached, ok := s.cache.Get(threadID); ok {
		if turns, ok := cached.([]Turn); ok {
			return turns
		}
	}

	return nil
}
