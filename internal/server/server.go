// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	_ "murmur/docs" // swagger docs
	"murmur/internal/auth"
	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/gateway"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "murmur-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens   *auth.TokenService
	ai       *gateway.Client
	notifier *notifications.Notifier
	hub      *notifications.Hub

	authService        *service.AuthService
	userService        *service.UserService
	postService        *service.PostService
	interactionService *service.InteractionService
	commentService     *service.CommentService
}

// NewServer connects to the database and Redis, migrating and seeding as
// configured, and builds a Server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// A nil Redis client disables caching, notifications and rate limiting.
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		Migrate:  cfg.AutoMigrate,
		SeedDemo: cfg.SeedDemo,
	})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}
	models.ExposeDetails = !cfg.IsProduction()

	users := repository.NewUserRepository(db, cfg.ProfileCacheTTL)
	posts := repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)
	likes := repository.NewLikeRepository(db)
	reposts := repository.NewRepostRepository(db)
	comments := repository.NewCommentRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		tokens:         auth.NewTokenService(cfg),
		ai:             gateway.New(gateway.ConfigFrom(cfg)),
		notifier:       notifications.NewNotifier(redisClient),
	}
	if redisClient != nil {
		s.hub = notifications.NewHub()
	}

	s.authService = service.NewAuthService(users, s.tokens)
	s.userService = service.NewUserService(users, follows, posts, likes, reposts, s.ai, s.notifier)
	s.postService = service.NewPostService(posts, comments, follows, likes, reposts, s.ai)
	s.interactionService = service.NewInteractionService(posts, users, likes, reposts, s.notifier)
	s.commentService = service.NewCommentService(comments, posts, users, s.ai, s.notifier)

	return s, nil
}

// NewApp builds the fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Murmur API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before ContextMiddleware so the trace id reaches logs.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.BaseAppURL
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Murmur Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.AuthRequired(s.tokens)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/signin", middleware.RateLimit(s.redis, 10, 5*time.Minute, "signin"), s.Signin)
	authGroup.Post("/signout", requireAuth, s.Signout)
	authGroup.Post("/refresh", middleware.RefreshRequired(s.tokens), s.Refresh)

	users := api.Group("/user", requireAuth)
	users.Get("/profile/:id", s.GetProfile)
	users.Get("/followers", s.GetMyFollowers)
	users.Get("/following", s.GetMyFollowing)
	users.Get("/suggestedFollows", s.GetSuggestedFollows)
	users.Post("/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.Follow)
	users.Post("/unfollow", s.Unfollow)
	users.Post("/edit", s.EditProfile)
	users.Get("/:id/checkFollow", s.CheckFollow)
	users.Get("/:id/followers", s.GetUserFollowers)
	users.Get("/:id/following", s.GetUserFollowing)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/reposts", s.GetUserReposts)
	users.Get("/:id/likes", s.GetUserLikes)

	// Static segments before /:id.
	posts := api.Group("/post", requireAuth)
	posts.Get("/suggested", s.GetSuggestedPosts)
	posts.Get("/following", s.GetFollowingPosts)
	posts.Get("/:id/comments", s.GetPostComments)
	posts.Get("/:id", s.GetPost)

	likes := api.Group("/like", requireAuth)
	likes.Post("/add/:postId", s.AddLike)
	likes.Post("/remove/:postId", s.RemoveLike)

	reposts := api.Group("/repost", requireAuth)
	reposts.Post("/add/:postId", s.AddRepost)
	reposts.Post("/remove/:postId", s.RemoveRepost)

	comments := api.Group("/comment", requireAuth)
	comments.Post("/add/:postId", middleware.RateLimit(s.redis, 10, time.Minute, "comment"), s.AddComment)
	comments.Post("/remove/:commentId", s.RemoveComment)

	api.Get("/ws", middleware.WebSocketAuthRequired(s.tokens), s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: the
// cache and notifications degrade without it, so only the database gates
// readiness.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database":   dbStatus,
			"redis":      redisStatus,
			"ai_service": s.ai.Breaker().State().String(),
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.hub != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring", slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
