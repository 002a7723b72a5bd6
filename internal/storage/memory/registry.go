package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// SessionRegistry is a mutex-guarded map with the same semantics as the Redis
// registry, used in tests and local development. The clock is injectable so
// expiry can be simulated.
type SessionRegistry struct {
	mu         sync.Mutex
	entries    map[string]entry
	sessionTTL time.Duration
	Now        func() time.Time
}

func NewSessionRegistry(sessionTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		entries:    make(map[string]entry),
		sessionTTL: sessionTTL,
		Now:        time.Now,
	}
}

func (r *SessionRegistry) InsertRefreshID(_ context.Context, userID int64, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[refreshKey(userID)] = entry{value: tokenID}
	return nil
}

func (r *SessionRegistry) ValidateRefreshID(_ context.Context, userID int64, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.matches(refreshKey(userID), tokenID) {
		return storage.ErrInvalidatedRefreshToken
	}
	return nil
}

func (r *SessionRegistry) ConsumeRefreshID(_ context.Context, userID int64, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := refreshKey(userID)
	if !r.matches(key, tokenID) {
		return storage.ErrInvalidatedRefreshToken
	}
	delete(r.entries, key)
	return nil
}

func (r *SessionRegistry) InvalidateRefreshID(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, refreshKey(userID))
	return nil
}

func (r *SessionRegistry) InsertSessionID(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[sessionKey(sessionID)] = entry{value: sessionSentinel, expiresAt: r.Now().Add(r.sessionTTL)}
	return nil
}

func (r *SessionRegistry) ValidateSessionID(_ context.Context, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.matches(sessionKey(sessionID), sessionSentinel)
}

func (r *SessionRegistry) InvalidateSessionID(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, sessionKey(sessionID))
	return nil
}

func (r *SessionRegistry) InsertResetID(_ context.Context, userID int64, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[resetKey(userID)] = entry{value: tokenID, expiresAt: r.Now().Add(ttl)}
	return nil
}

func (r *SessionRegistry) ConsumeResetID(_ context.Context, userID int64, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := resetKey(userID)
	if !r.matches(key, tokenID) {
		return storage.ErrInvalidatedRefreshToken
	}
	delete(r.entries, key)
	return nil
}

func (r *SessionRegistry) InvalidateResetID(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, resetKey(userID))
	return nil
}

// matches expects the caller to hold the mutex.
func (r *SessionRegistry) matches(key, value string) bool {
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	if !e.expiresAt.IsZero() && r.Now().After(e.expiresAt) {
		delete(r.entries, key)
		return false
	}
	return e.value == value
}

const sessionSentinel = "public"

func refreshKey(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

func sessionKey(sessionID string) string {
	return sessionID
}

func resetKey(userID int64) string {
	return "reset-" + strconv.FormatInt(userID, 10)
}
