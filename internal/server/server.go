// Package server contains the HTTP handlers for the AgriLink marketplace API.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"agrilink/internal/ai"
	"agrilink/internal/config"
	"agrilink/internal/database"
	"agrilink/internal/middleware"
	"agrilink/internal/repository"
	"agrilink/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	mongo    *mongo.Client
	redis    *redis.Client
	auth     *middleware.Authenticator
	sessions session.Store
	users    repository.UserRepository
	postings repository.PostingRepository
	orders   repository.OrderRepository
	demands  repository.DemandRepository
	feedback repository.FeedbackRepository
	ai       *ai.Client
	prom     *fiberprometheus.FiberPrometheus
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	mongoClient, db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Sessions live in Redis; without it nobody can authenticate, so a
	// failed connection is fatal.
	redisClient, err := connectRedis(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, mongoClient, db, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, mongoClient *mongo.Client, db *mongo.Database, redisClient *redis.Client) *Server {
	users := repository.NewUserRepository(db)
	sessions := session.NewRedisStore(redisClient)

	s := &Server{
		config:   cfg,
		mongo:    mongoClient,
		redis:    redisClient,
		sessions: sessions,
		users:    users,
		postings: repository.NewPostingRepository(db),
		orders:   repository.NewOrderRepository(db),
		demands:  repository.NewDemandRepository(db),
		feedback: repository.NewFeedbackRepository(db),
		ai:       ai.NewClient(cfg.AIEndpointURL),
		prom:     fiberprometheus.New("agrilink-api"),
	}
	s.auth = middleware.NewAuthenticator(sessions, users)
	return s
}

func connectRedis(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Redis connected successfully")
	return client, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Prometheus metrics
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	app.Use(logger.New())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", s.Health)

	// Metrics endpoint for Prometheus
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	authRequired := s.auth.RequireAuth

	// Auth + profile routes
	users := api.Group("/users")
	users.Post("/register", s.Register)
	users.Post("/login", s.Login)
	users.Post("/logout", authRequired, s.Logout)
	users.Get("/me", authRequired, s.GetMe)
	users.Put("/profile", authRequired, s.UpdateProfile)

	// Posting routes; list/get are public
	postings := api.Group("/postings")
	postings.Get("/", s.ListPostings)
	postings.Get("/:id", s.GetPosting)
	postings.Post("/", authRequired, middleware.SellerOnly, s.CreatePosting)
	postings.Put("/:id", authRequired, middleware.SellerOnly, s.UpdatePosting)
	postings.Delete("/:id", authRequired, middleware.SellerOnly, s.DeletePosting)

	// Order routes
	orders := api.Group("/orders", authRequired)
	orders.Post("/", middleware.BuyerOnly, s.CreateOrder)
	orders.Get("/buyer", middleware.BuyerOnly, s.ListBuyerOrders)
	orders.Get("/seller", middleware.SellerOnly, s.ListSellerOrders)
	orders.Put("/:id/status", middleware.SellerOnly, s.UpdateOrderStatus)
	orders.Post("/:id/feedback", middleware.BuyerOnly, s.CreateFeedback)

	// Demand routes; /my-demands must precede the generic /:id route
	demands := api.Group("/demands", authRequired)
	demands.Post("/", middleware.BuyerOnly, s.CreateDemand)
	demands.Get("/", s.ListDemands)
	demands.Get("/my-demands", middleware.BuyerOnly, s.MyDemands)
	demands.Get("/:id", s.GetDemand)
	demands.Post("/:id/respond", middleware.SellerOnly, s.RespondToDemand)
	demands.Patch("/:id", s.UpdateDemandStatus)

	// Favorites routes
	favorites := api.Group("/favorites", authRequired)
	favorites.Get("/", s.GetFavorites)
	favorites.Post("/:userId", s.AddFavorite)
	favorites.Delete("/:userId", s.RemoveFavorite)

	// AI freshness evaluation proxy
	api.Post("/ai/evaluate-image", authRequired, s.EvaluateImage)
}

// Health handles GET /api/health, reporting dependency liveness.
func (s *Server) Health(c *fiber.Ctx) error {
	status := "ok"
	deps := fiber.Map{}

	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := s.mongo.Ping(ctx, readpref.Primary()); err != nil {
			status = "degraded"
			deps["mongo"] = "down"
		} else {
			deps["mongo"] = "up"
		}
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			status = "degraded"
			deps["redis"] = "down"
		} else {
			deps["redis"] = "up"
		}
	}

	return c.JSON(fiber.Map{"status": status, "dependencies": deps})
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
	if s.mongo != nil {
		return s.mongo.Disconnect(ctx)
	}
	return nil
}
