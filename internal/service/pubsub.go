package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

const (
	// GenerateHeroChannel carries job descriptors to the analysis worker.
	GenerateHeroChannel = "generate-hero-channel"
	// HeroCompletionChannel signals a finished authenticated analysis.
	HeroCompletionChannel = "hero-completion-channel"
	// PublicHeroCompletionChannel signals a finished anonymous analysis and
	// carries its results inline.
	PublicHeroCompletionChannel = "public-hero-completion-channel"

	heroEvent       = "hero"
	publicHeroEvent = "public-hero"
)

// RoomEmitter pushes an event to every live connection in a room.
type RoomEmitter interface {
	EmitToRoom(room, event string, data interface{})
}

// PubSubService bridges the Redis channels to the WebSocket rooms. Publishes
// go over the shared client; subscriptions get their own connection since a
// subscribed Redis connection cannot serve regular commands.
type PubSubService struct {
	publisher  *redis.Client
	subscriber *redis.Client
	books      *BookService
	registry   storage.SessionRegistry
	emitter    RoomEmitter
	log        *zap.SugaredLogger
}

func NewPubSubService(
	publisher *redis.Client,
	subscriber *redis.Client,
	books *BookService,
	registry storage.SessionRegistry,
	emitter RoomEmitter,
	log *zap.SugaredLogger,
) *PubSubService {
	return &PubSubService{
		publisher:  publisher,
		subscriber: subscriber,
		books:      books,
		registry:   registry,
		emitter:    emitter,
		log:        log,
	}
}

// Publish is fire-and-forget: no acknowledgement, no completion correlation
// beyond what the payload itself carries.
func (s *PubSubService) Publish(ctx context.Context, channel string, payload interface{}) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	if err := s.publisher.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	s.log.Infow("published message", "channel", channel)
	return nil
}

// PublishRaw sends an already-serialized message as-is.
func (s *PubSubService) PublishRaw(ctx context.Context, channel, message string) error {
	if err := s.publisher.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	s.log.Infow("published message", "channel", channel)
	return nil
}

// Start subscribes to both completion channels for the lifetime of ctx.
func (s *PubSubService) Start(ctx context.Context) {
	go s.listen(ctx, HeroCompletionChannel, s.handleHeroCompletion)
	go s.listen(ctx, PublicHeroCompletionChannel, s.handlePublicHeroCompletion)
}

// listen dispatches each message through a recover guard. A panicking or
// erroring handler must never take down the subscription loop: a dead
// subscriber silently stops all future result delivery.
func (s *PubSubService) listen(ctx context.Context, channel string, handler func(ctx context.Context, payload []byte)) {
	pubsub := s.subscriber.Subscribe(ctx, channel)
	defer pubsub.Close()
	s.log.Infow("subscribed", "channel", channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			s.dispatch(ctx, channel, handler, []byte(msg.Payload))
		}
	}
}

func (s *PubSubService) dispatch(ctx context.Context, channel string, handler func(ctx context.Context, payload []byte), payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("panic in pubsub handler", "channel", channel, "panic", r)
		}
	}()
	handler(ctx, payload)
}

func (s *PubSubService) handleHeroCompletion(ctx context.Context, payload []byte) {
	var completion models.HeroCompletion
	if err := json.Unmarshal(payload, &completion); err != nil {
		s.log.Errorw("malformed hero completion dropped", "error", err)
		return
	}
	if completion.UserID == 0 || completion.BookID == 0 {
		s.log.Errorw("hero completion missing userId/bookId, dropped")
		return
	}

	heroes, err := s.books.FindResultsByUserAndBook(ctx, completion.UserID, completion.BookID)
	if err != nil {
		s.log.Errorw("failed to fetch hero results", "userID", completion.UserID, "bookID", completion.BookID, "error", err)
		return
	}

	room := strconv.FormatInt(completion.UserID, 10)
	s.log.Infow("emitting hero results", "userID", completion.UserID, "bookID", completion.BookID)
	s.emitter.EmitToRoom(room, heroEvent, heroes)
}

func (s *PubSubService) handlePublicHeroCompletion(ctx context.Context, payload []byte) {
	var completion models.PublicHeroCompletion
	if err := json.Unmarshal(payload, &completion); err != nil {
		s.log.Errorw("malformed public hero completion dropped", "error", err)
		return
	}
	if completion.Results == nil {
		s.log.Errorw("public hero completion without results array, dropped")
		return
	}

	enriched := s.books.EnrichPublicResults(completion.Results)

	// The session may have expired or been ended between job submission and
	// completion; never emit into a room nobody legitimate is listening on.
	if !s.registry.ValidateSessionID(ctx, completion.SessionID) {
		s.log.Infow("public hero result for invalid session dropped", "sessionID", completion.SessionID)
		return
	}

	s.log.Infow("emitting public hero results", "sessionID", completion.SessionID)
	s.emitter.EmitToRoom(completion.SessionID, publicHeroEvent, enriched)
}
