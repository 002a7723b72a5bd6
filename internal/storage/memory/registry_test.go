package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

func TestRefreshIDLifecycle(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, r.ValidateRefreshID(ctx, 1, "id-1"), storage.ErrInvalidatedRefreshToken)

	require.NoError(t, r.InsertRefreshID(ctx, 1, "id-1"))
	assert.NoError(t, r.ValidateRefreshID(ctx, 1, "id-1"))
	assert.ErrorIs(t, r.ValidateRefreshID(ctx, 1, "id-2"), storage.ErrInvalidatedRefreshToken)
	assert.ErrorIs(t, r.ValidateRefreshID(ctx, 2, "id-1"), storage.ErrInvalidatedRefreshToken)

	// Inserting again overwrites; only the latest id is valid.
	require.NoError(t, r.InsertRefreshID(ctx, 1, "id-2"))
	assert.ErrorIs(t, r.ValidateRefreshID(ctx, 1, "id-1"), storage.ErrInvalidatedRefreshToken)
	assert.NoError(t, r.ValidateRefreshID(ctx, 1, "id-2"))

	require.NoError(t, r.InvalidateRefreshID(ctx, 1))
	assert.ErrorIs(t, r.ValidateRefreshID(ctx, 1, "id-2"), storage.ErrInvalidatedRefreshToken)
	assert.NoError(t, r.InvalidateRefreshID(ctx, 1))
}

func TestConsumeRefreshIDIsSingleUse(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	ctx := context.Background()

	require.NoError(t, r.InsertRefreshID(ctx, 1, "id-1"))
	require.NoError(t, r.ConsumeRefreshID(ctx, 1, "id-1"))
	assert.ErrorIs(t, r.ConsumeRefreshID(ctx, 1, "id-1"), storage.ErrInvalidatedRefreshToken)

	// A mismatching id does not consume the stored one.
	require.NoError(t, r.InsertRefreshID(ctx, 1, "id-2"))
	assert.ErrorIs(t, r.ConsumeRefreshID(ctx, 1, "id-1"), storage.ErrInvalidatedRefreshToken)
	assert.NoError(t, r.ValidateRefreshID(ctx, 1, "id-2"))
}

func TestSessionIDExpiry(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.Now = func() time.Time { return base }

	assert.False(t, r.ValidateSessionID(ctx, "sess-1"))

	require.NoError(t, r.InsertSessionID(ctx, "sess-1"))
	assert.True(t, r.ValidateSessionID(ctx, "sess-1"))

	r.Now = func() time.Time { return base.Add(time.Hour) }
	assert.True(t, r.ValidateSessionID(ctx, "sess-1"))

	r.Now = func() time.Time { return base.Add(time.Hour + time.Second) }
	assert.False(t, r.ValidateSessionID(ctx, "sess-1"))
}

func TestSessionIDInvalidate(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	ctx := context.Background()

	require.NoError(t, r.InsertSessionID(ctx, "sess-1"))
	require.NoError(t, r.InvalidateSessionID(ctx, "sess-1"))
	assert.False(t, r.ValidateSessionID(ctx, "sess-1"))
}

func TestResetIDExpiryAndSingleUse(t *testing.T) {
	r := NewSessionRegistry(time.Hour)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.Now = func() time.Time { return base }

	require.NoError(t, r.InsertResetID(ctx, 1, "reset-1", 30*time.Minute))

	r.Now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.ErrorIs(t, r.ConsumeResetID(ctx, 1, "reset-1"), storage.ErrInvalidatedRefreshToken)

	r.Now = func() time.Time { return base }
	require.NoError(t, r.InsertResetID(ctx, 1, "reset-2", 30*time.Minute))
	require.NoError(t, r.ConsumeResetID(ctx, 1, "reset-2"))
	assert.ErrorIs(t, r.ConsumeResetID(ctx, 1, "reset-2"), storage.ErrInvalidatedRefreshToken)
}
