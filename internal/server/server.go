// Package server wires the application together and exposes the websocket
// endpoint, the health checks and the admin sweep.
package server

import (
	"context"
	"fmt"
	"log"

	"banterbus/internal/cache"
	"banterbus/internal/catalog"
	"banterbus/internal/config"
	"banterbus/internal/database"
	"banterbus/internal/events"
	"banterbus/internal/game"
	"banterbus/internal/notifications"
	"banterbus/internal/observability"
	"banterbus/internal/repository"
	"banterbus/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	roomRepo      repository.RoomRepository
	playerRepo    repository.PlayerRepository
	gameStateRepo repository.GameStateRepository

	catalogClient catalog.Client
	notifier      *notifications.Notifier
	hub           *notifications.Hub
	dispatcher    *events.Dispatcher
	handlers      *events.Handlers

	roomService      *service.RoomService
	playerService    *service.PlayerService
	gameStateService *service.GameStateService
	lobbyService     *service.LobbyService
}

// NewServer creates a server instance, connecting to the database and Redis.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.Client)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	exclude, err := cfg.LogResponseExcludeAttr()
	if err != nil {
		return nil, fmt.Errorf("invalid log exclusion table: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("banterbus-core-api"),
	}

	server.roomRepo = repository.NewRoomRepository(db)
	server.playerRepo = repository.NewPlayerRepository(db)
	server.gameStateRepo = repository.NewGameStateRepository(db)

	server.catalogClient = catalog.NewClient(cfg.ManagementURL())
	engine := game.NewFibbingIt(cfg.QuestionsPerRound)

	server.roomService = service.NewRoomService(server.roomRepo)
	server.playerService = service.NewPlayerService(server.playerRepo)
	server.gameStateService = service.NewGameStateService(server.gameStateRepo, server.catalogClient, engine)
	server.lobbyService = service.NewLobbyService(server.roomService, server.playerService, server.gameStateService)

	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewHub(server.notifier)
	server.dispatcher = events.NewDispatcher(server.hub, observability.NewEventLogger(exclude))
	server.handlers = events.NewHandlers(
		cfg,
		server.dispatcher,
		server.hub,
		server.lobbyService,
		server.roomService,
		server.playerService,
		server.gameStateService,
		server.catalogClient,
	)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/ws", s.WebSocketUpgrade)
	app.Get("/ws", s.WebSocketHandler())

	// The colon is escaped so fiber treats it as a literal, not a route param.
	app.Put("/player\\:disconnect", s.SweepDisconnectedPlayers)
}

// HealthCheck reports process, database and Redis health.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
	}
	if s.redis != nil {
		if err := s.redis.Ping(c.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = "unreachable"
		}
	}

	if status["status"] != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}

// Start starts the server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Banter Bus Core API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
