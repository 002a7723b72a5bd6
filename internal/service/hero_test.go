package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
)

type recordingBus struct {
	channel string
	payload interface{}
	calls   int
}

func (b *recordingBus) Publish(_ context.Context, channel string, payload interface{}) error {
	b.channel = channel
	b.payload = payload
	b.calls++
	return nil
}

func newTestHeroService(bus *recordingBus, repo *fakeBookRepo) (*HeroService, *TokenService) {
	tokens := newTestTokenService(time.Now)
	return NewHeroService(tokens, bus, NewBookService(repo), zap.NewNop().Sugar()), tokens
}

func TestGenerateHeroPublishesJob(t *testing.T) {
	bus := &recordingBus{}
	svc, tokens := newTestHeroService(bus, &fakeBookRepo{})

	accessToken, _, err := tokens.IssueAccessToken(7, "user@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.GenerateHeroFromBook(context.Background(), accessToken, 3))
	assert.Equal(t, GenerateHeroChannel, bus.channel)
	assert.Equal(t, models.HeroJob{UserID: 7, BookID: 3}, bus.payload)
}

func TestGenerateHeroRejectsBadToken(t *testing.T) {
	bus := &recordingBus{}
	svc, _ := newTestHeroService(bus, &fakeBookRepo{})

	err := svc.GenerateHeroFromBook(context.Background(), "not-a-jwt", 3)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Zero(t, bus.calls)
}

func TestAnalyzeTextForPublicUser(t *testing.T) {
	bus := &recordingBus{}
	svc, _ := newTestHeroService(bus, &fakeBookRepo{})

	require.NoError(t, svc.AnalyzeTextForPublicUser(context.Background(), "dear diary", "sess-1"))
	assert.Equal(t, GenerateHeroChannel, bus.channel)
	assert.Equal(t, models.PublicHeroJob{Text: "dear diary", SessionID: "sess-1"}, bus.payload)
}

func TestFetchHero(t *testing.T) {
	repo := &fakeBookRepo{results: []models.Result{
		{ID: 1, ModelName: "OCEAN", TraitName: "agreeableness", TraitValue: "high"},
	}}
	svc, tokens := newTestHeroService(&recordingBus{}, repo)

	accessToken, _, err := tokens.IssueAccessToken(7, "user@example.com")
	require.NoError(t, err)

	heroes, err := svc.FetchHero(context.Background(), accessToken, 3)
	require.NoError(t, err)
	require.Len(t, heroes, 1)
	assert.Equal(t, "Harmony Weaver", heroes[0].SuperPower)
	assert.Equal(t, int64(7), repo.lastUserID)

	_, err = svc.FetchHero(context.Background(), "not-a-jwt", 3)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
