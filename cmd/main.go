package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/api"
	"github.com/mwilder2/diarydawn-backend/internal/controller"
	"github.com/mwilder2/diarydawn-backend/internal/migrations"
	"github.com/mwilder2/diarydawn-backend/internal/service"
	"github.com/mwilder2/diarydawn-backend/internal/storage/postgres"
	redisstorage "github.com/mwilder2/diarydawn-backend/internal/storage/redis"
	"github.com/mwilder2/diarydawn-backend/internal/util"
	"github.com/mwilder2/diarydawn-backend/internal/ws"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisCfg := util.NewRedisConfig()
	redisClient, redisCleanup, err := util.NewRedisClient(ctx, logger, redisCfg)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	// A subscribed connection cannot serve regular commands, so the
	// subscriber gets its own client.
	subClient, subCleanup, err := util.NewRedisClient(ctx, logger, redisCfg)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	cleanupFuncs := []func(){dbCleanup, redisCleanup, subCleanup}

	store := postgres.NewStorage(db)
	registry := redisstorage.NewSessionRegistry(redisClient, logger, util.NewSessionConfig().SessionTTL)
	tokenService := service.NewTokenService(util.NewTokenConfig())

	emailCfg := util.NewEmailConfig()
	var sender service.EmailSender
	if emailCfg.DevMode {
		sender = service.NewLogSender(logger)
	} else {
		sender, err = service.NewSESSender(emailCfg, logger)
		if err != nil {
			logger.Fatal(zap.Error(err))
		}
	}
	emailService := service.NewEmailService(sender, emailCfg)

	authService := service.NewAuthService(tokenService, store, registry, service.NewBcryptHasher(), emailService, logger)

	googleVerifier, err := service.NewGoogleVerifier(ctx, util.NewGoogleConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	googleService := service.NewGoogleAuthService(googleVerifier, authService, store, logger)

	hub := ws.NewHub(logger)
	bookService := service.NewBookService(store)
	pubSubService := service.NewPubSubService(redisClient, subClient, bookService, registry, hub, logger)
	pubSubService.Start(ctx)
	heroService := service.NewHeroService(tokenService, pubSubService, bookService, logger)

	gateway := ws.NewGateway(hub, tokenService, registry, logger)
	ctrl := controller.NewController(logger, authService, googleService, heroService, pubSubService, tokenService, emailService)

	apiServer := api.NewAPI(ctrl, gateway, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
