package router

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/notification"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"github.com/anonto42/nano-social/backend/pkg/mailer"
	"github.com/labstack/echo/v4"
)

// Dependencies are the long-lived services the routes are built on
type Dependencies struct {
	Config      *config.Config
	DB          *config.DB
	Firebase    firebase.TokenVerifier
	Hub         *realtime.Hub
	Broadcaster notification.Broadcaster
}

// SetupRoutes migrates the account table, builds repositories and handlers
// and registers every route
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := deps.DB.Postgres.AutoMigrate(&models.Account{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Log.Info("PostgreSQL auto-migrations completed")

	// --- Initialize Repositories ---
	accountRepo := repositories.NewPostgresAccountRepository(deps.DB.Postgres)
	userRepo := repositories.NewMongoUserRepository(deps.DB.Mongo)
	postRepo := repositories.NewMongoPostRepository(deps.DB.Mongo)
	likeRepo := repositories.NewMongoLikeRepository(deps.DB.Mongo)
	commentRepo := repositories.NewMongoCommentRepository(deps.DB.Mongo)
	friendshipRepo := repositories.NewMongoFriendshipRepository(deps.DB.Mongo)
	chatRepo := repositories.NewMongoChatRepository(deps.DB.Mongo)
	notificationRepo := repositories.NewMongoNotificationRepository(deps.DB.Mongo)

	dispatcher := notification.NewDispatcher(postRepo, notificationRepo, userRepo, deps.Broadcaster)
	inbox := notification.NewInbox(notificationRepo, postRepo, deps.Broadcaster)
	resolver := middleware.NewTokenResolver(deps.Config.JWTSecret, deps.Firebase, accountRepo)
	mail, err := mailer.New(deps.Config.AWSRegion, deps.Config.MailFrom)
	if err != nil {
		return fmt.Errorf("failed to set up mailer: %w", err)
	}

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(healthChecks(deps.DB)).HealthCheck)

	// Realtime, authenticated with ?token=
	realtime.NewHandler(deps.Hub, func(token string) (string, error) {
		return resolver.Resolve(context.Background(), token)
	}, deps.Config.AllowedOrigins).RegisterRealtimeRoutes(e)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(accountRepo, userRepo, deps.Firebase, mail, deps.Config.JWTSecret, deps.Config.PublicURL).RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(resolver))

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewPostHandler(postRepo, userRepo, deps.Broadcaster).RegisterPostRoutes(api)
	handlers.NewLikeHandler(likeRepo, dispatcher, deps.Broadcaster).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(commentRepo, postRepo, dispatcher, deps.Broadcaster).RegisterCommentRoutes(api)
	handlers.NewFriendshipHandler(friendshipRepo, userRepo, dispatcher, deps.Broadcaster).RegisterFriendshipRoutes(api)
	handlers.NewNotificationHandler(inbox).RegisterNotificationRoutes(api)
	handlers.NewChatHandler(chatRepo, userRepo, deps.Broadcaster).RegisterChatRoutes(api)

	logger.Log.Info("All routes configured")
	return nil
}

func healthChecks(db *config.DB) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"mongo": func(ctx context.Context) error {
			return db.Mongo.Client().Ping(ctx, nil)
		},
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if db.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return db.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
