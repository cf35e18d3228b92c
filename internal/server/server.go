package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fitstack/liftsync/internal/config"
	"github.com/fitstack/liftsync/internal/handler"
	"github.com/fitstack/liftsync/internal/middleware"
	"github.com/fitstack/liftsync/internal/repository"
	"github.com/fitstack/liftsync/internal/service"
	"github.com/fitstack/liftsync/internal/telemetry"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	dayRepo := repository.NewMongoDayRepository(deps.MongoDB)
	exerciseRepo := repository.NewMongoExerciseRepository(deps.MongoDB)
	setRepo := repository.NewMongoSetRepository(deps.MongoDB)
	restRepo := repository.NewMongoRestRepository(deps.MongoDB)
	tombstoneRepo := repository.NewMongoTombstoneRepository(deps.MongoDB)
	catalogRepo := repository.NewMongoCatalogRepository(deps.MongoDB)

	// Initialize services
	applyService := service.NewApplyService(dayRepo, exerciseRepo, setRepo, restRepo, tombstoneRepo, catalogRepo)
	dayService := service.NewDayService(dayRepo, exerciseRepo, setRepo, restRepo)

	// Initialize handlers
	syncHandler := handler.NewSyncHandler(applyService)
	dayHandler := handler.NewDayHandler(dayService)
	catalogHandler := handler.NewCatalogHandler(catalogRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LiftSync API",
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Idempotency-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "liftsync",
		})
	})

	// API v1 routes (all authenticated)
	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyToken(deps.Config.JWT.Secret))

	// Sync protocol. The idempotency layer replays cached batch responses so
	// retried flushes never re-apply.
	sync := v1.Group("/sync")
	sync.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Server.IdempotencyTTL))
	sync.Post("/save", syncHandler.Save)

	// Day reads
	v1.Get("/days/:date", dayHandler.GetDay)

	// Exercise catalog
	v1.Get("/catalog", catalogHandler.List)
	v1.Get("/catalog/:id", catalogHandler.Get)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
