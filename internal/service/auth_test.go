package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
	"github.com/mwilder2/diarydawn-backend/internal/storage/memory"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) CreateUserWithDefaults(_ context.Context, email string, passwordHash, googleID *string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return nil, storage.ErrDuplicateUser
		}
	}
	r.nextID++
	user := &models.User{
		ID:        r.nextID,
		Email:     email,
		Password:  passwordHash,
		GoogleID:  googleID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.Password = &passwordHash
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeMailer struct {
	mu        sync.Mutex
	lastTo    string
	lastToken string
	sent      int
}

func (m *fakeMailer) SendPasswordRecoveryEmail(_ context.Context, to, resetToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = to
	m.lastToken = resetToken
	m.sent++
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeMailer, *memory.SessionRegistry) {
	t.Helper()

	users := newFakeUserRepo()
	mailer := &fakeMailer{}
	registry := memory.NewSessionRegistry(time.Hour)
	tokens := newTestTokenService(time.Now)
	hasher := &BcryptHasher{cost: bcrypt.MinCost}

	auth := NewAuthService(tokens, users, registry, hasher, mailer, zap.NewNop().Sugar())
	return auth, users, mailer, registry
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	auth, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "First@Example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", user.Email)

	_, err = auth.Register(ctx, "first@example.COM", "other456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, users, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "user@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Social-only accounts have no password and cannot log in with one.
	googleID := "google-sub-1"
	_, err = users.CreateUserWithDefaults(ctx, "social@example.com", nil, &googleID)
	require.NoError(t, err)
	_, err = auth.Login(ctx, "social@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	auth, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	pair, err := auth.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	rotated, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token still verifies cryptographically, but its id is gone.
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = auth.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	auth, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	pair, err := auth.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, pair.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, denied int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAccessDenied):
			denied++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, denied)
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	auth, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	pair, err := auth.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, pair.AccessToken))
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Logging out twice is fine.
	assert.NoError(t, auth.Logout(ctx, pair.AccessToken))
}

func TestEndPublicSession(t *testing.T) {
	auth, _, _, registry := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, registry.InsertSessionID(ctx, "sess-1"))
	require.True(t, registry.ValidateSessionID(ctx, "sess-1"))

	require.NoError(t, auth.EndPublicSession(ctx, "sess-1"))
	assert.False(t, registry.ValidateSessionID(ctx, "sess-1"))

	// Ending an unknown or already-ended session is fine.
	assert.NoError(t, auth.EndPublicSession(ctx, "sess-1"))
	assert.NoError(t, auth.EndPublicSession(ctx, "never-existed"))
}

func TestPasswordResetFlow(t *testing.T) {
	auth, _, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "oldpass123")
	require.NoError(t, err)

	require.NoError(t, auth.RequestPasswordReset(ctx, "User@Example.com"))
	assert.Equal(t, "user@example.com", mailer.lastTo)
	require.NotEmpty(t, mailer.lastToken)

	require.NoError(t, auth.SubmitPasswordReset(ctx, mailer.lastToken, "newpass456"))

	_, err = auth.Login(ctx, "user@example.com", "oldpass123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "user@example.com", "newpass456")
	assert.NoError(t, err)

	// Reset tokens are single use.
	err = auth.SubmitPasswordReset(ctx, mailer.lastToken, "thirdpass789")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	auth, _, mailer, _ := newTestAuthService(t)

	err := auth.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Zero(t, mailer.sent)
}

func TestPasswordResetExpiresInRegistry(t *testing.T) {
	auth, _, mailer, registry := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "user@example.com", "oldpass123")
	require.NoError(t, err)
	require.NoError(t, auth.RequestPasswordReset(ctx, "user@example.com"))

	registry.Now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	err = auth.SubmitPasswordReset(ctx, mailer.lastToken, "newpass456")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
