package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "firelater-migrate/internal/common/api"
	"firelater-migrate/internal/config"
	"firelater-migrate/internal/database"
	"firelater-migrate/internal/features/migration"
	"firelater-migrate/internal/features/template"
	"firelater-migrate/internal/importer"
	"firelater-migrate/internal/logger"
	"firelater-migrate/internal/middleware"
	"firelater-migrate/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             100 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeStores ensures the target database tables and the mongo
// indexes exist before the first job runs.
func InitializeStores(lc fx.Lifecycle, target *database.TargetDB, templateRepo template.TemplateRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := importer.EnsureSchema(ctx, target); err != nil {
					logger.Error("failed to ensure target schema", zap.Error(err))
				}
				if err := templateRepo.EnsureIndexes(ctx); err != nil {
					logger.Error("failed to ensure template indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Databases
			database.NewDatabase,
			database.NewTargetDB,

			// Import executors
			importer.NewRegistry,

			// Initialize Repository
			migration.NewJobRepository,
			template.NewTemplateRepository,

			migration.NewMigrationService,
			template.NewTemplateService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s template.TemplateService) migration.TemplateResolver { return s },

			// Initialize Controller
			migration.NewMigrationController,
			template.NewTemplateController,

			// Initialize API Routes
			AsRoute(migration.NewMigrationApi),
			AsRoute(template.NewTemplateApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeStores,
		),
	)

	app.Run()
}
