package main

import (
	"context"
	"log"

	"pollbox/internal/config"
	"pollbox/internal/handler"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/server"
	"pollbox/internal/services"
	"pollbox/internal/ws"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			l.Warnf("redis unreachable, continuing without cache: %s", err)
			redisClient = nil
		}
	}

	cache := redis.NewResultsCache(redisClient)
	publisher := redis.NewPublisher(redisClient)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	userRepo := repository.NewUserRepository(db)
	pollRepo := repository.NewPollRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	authService := services.NewAuthService(userRepo, cfg)
	pollService := services.NewPollService(pollRepo, cache, l)
	voteService := services.NewVoteService(pollRepo, voteRepo, cache, publisher, l)

	if err := authService.EnsureSuperuser(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	hub := ws.NewHub(l)
	if redisClient != nil {
		hubCtx, cancelHub := context.WithCancel(context.Background())
		defer cancelHub()
		go hub.Run(hubCtx, redis.NewSubscriber(redisClient))
	}

	srv := server.New(cfg, l, db)
	srv.SetupRoutes(&server.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Polls: handler.NewPollHandler(pollService, voteService),
		Admin: handler.NewAdminHandler(pollService),
		Live:  handler.NewLiveHandler(pollService, hub),
	}, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
