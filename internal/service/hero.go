package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
)

// JobPublisher submits a job descriptor to a channel, fire-and-forget.
type JobPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// HeroService accepts analysis requests. The actual computation happens in an
// external worker; completion comes back through the pub/sub bus.
type HeroService struct {
	tokens *TokenService
	bus    JobPublisher
	books  *BookService
	log    *zap.SugaredLogger
}

func NewHeroService(tokens *TokenService, bus JobPublisher, books *BookService, log *zap.SugaredLogger) *HeroService {
	return &HeroService{
		tokens: tokens,
		bus:    bus,
		books:  books,
		log:    log,
	}
}

// GenerateHeroFromBook queues an analysis of the user's book. The caller
// does not wait for completion; the result is pushed to the user's room.
func (s *HeroService) GenerateHeroFromBook(ctx context.Context, accessToken string, bookID int64) error {
	userID, _, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	s.log.Infow("hero generation requested", "userID", userID, "bookID", bookID)
	return s.bus.Publish(ctx, GenerateHeroChannel, models.HeroJob{UserID: userID, BookID: bookID})
}

// AnalyzeTextForPublicUser queues an anonymous analysis scoped to sessionID.
func (s *HeroService) AnalyzeTextForPublicUser(ctx context.Context, text, sessionID string) error {
	s.log.Infow("public analysis requested", "sessionID", sessionID)
	return s.bus.Publish(ctx, GenerateHeroChannel, models.PublicHeroJob{Text: text, SessionID: sessionID})
}

// FetchHero returns the enriched results already stored for the user's book.
func (s *HeroService) FetchHero(ctx context.Context, accessToken string, bookID int64) ([]models.Hero, error) {
	userID, _, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return s.books.FindResultsByUserAndBook(ctx, userID, bookID)
}
