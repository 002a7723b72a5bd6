package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

const sessionSentinel = "public"

// consumeScript deletes the key only if it holds the expected value and
// reports whether it did. GET-then-DEL from the client would let two
// concurrent refreshes both win the validate step.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// SessionRegistry keeps the single live refresh-token id per user, the
// public session ids and the pending reset-token ids.
type SessionRegistry struct {
	client     *redis.Client
	log        *zap.SugaredLogger
	sessionTTL time.Duration
}

func NewSessionRegistry(client *redis.Client, log *zap.SugaredLogger, sessionTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, log: log, sessionTTL: sessionTTL}
}

// InsertRefreshID overwrites the stored id for the user; this is the rotation
// step. No expiry is attached, the refresh token's own signed expiry bounds
// its useful lifetime.
func (r *SessionRegistry) InsertRefreshID(ctx context.Context, userID int64, tokenID string) error {
	if err := r.client.Set(ctx, refreshKey(userID), tokenID, 0).Err(); err != nil {
		return fmt.Errorf("%w: insert refresh id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *SessionRegistry) ValidateRefreshID(ctx context.Context, userID int64, tokenID string) error {
	stored, err := r.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		// redis.Nil and transport errors alike are treated as invalid:
		// validation never fails open.
		if err != redis.Nil {
			r.log.Errorw("refresh id lookup failed", "error", err)
		}
		return storage.ErrInvalidatedRefreshToken
	}
	if stored != tokenID {
		return storage.ErrInvalidatedRefreshToken
	}
	return nil
}

func (r *SessionRegistry) ConsumeRefreshID(ctx context.Context, userID int64, tokenID string) error {
	ok, err := consumeScript.Run(ctx, r.client, []string{refreshKey(userID)}, tokenID).Int()
	if err != nil {
		r.log.Errorw("refresh id consume failed", "error", err)
		return storage.ErrInvalidatedRefreshToken
	}
	if ok != 1 {
		return storage.ErrInvalidatedRefreshToken
	}
	return nil
}

func (r *SessionRegistry) InvalidateRefreshID(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: invalidate refresh id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *SessionRegistry) InsertSessionID(ctx context.Context, sessionID string) error {
	if err := r.client.Set(ctx, sessionKey(sessionID), sessionSentinel, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("%w: insert session id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

// ValidateSessionID is existence + sentinel match; anything else, including a
// store failure, counts as invalid.
func (r *SessionRegistry) ValidateSessionID(ctx context.Context, sessionID string) bool {
	value, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Errorw("session id lookup failed", "error", err)
		}
		return false
	}
	return value == sessionSentinel
}

func (r *SessionRegistry) InvalidateSessionID(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: invalidate session id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *SessionRegistry) InsertResetID(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, resetKey(userID), tokenID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: insert reset id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *SessionRegistry) ConsumeResetID(ctx context.Context, userID int64, tokenID string) error {
	ok, err := consumeScript.Run(ctx, r.client, []string{resetKey(userID)}, tokenID).Int()
	if err != nil {
		r.log.Errorw("reset id consume failed", "error", err)
		return storage.ErrInvalidatedRefreshToken
	}
	if ok != 1 {
		return storage.ErrInvalidatedRefreshToken
	}
	return nil
}

func (r *SessionRegistry) InvalidateResetID(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, resetKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: invalidate reset id: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

func refreshKey(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

func sessionKey(sessionID string) string {
	return sessionID
}

func resetKey(userID int64) string {
	return "reset-" + strconv.FormatInt(userID, 10)
}
