package migration

import (
	"firelater-migrate/internal/config"
	"firelater-migrate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MigrationApi struct {
	MigrationController *MigrationController
	Config              *config.Config
}

func NewMigrationApi(migrationController *MigrationController, config *config.Config) *MigrationApi {
	return &MigrationApi{
		MigrationController: migrationController,
		Config:              config,
	}
}

func (api *MigrationApi) Setup(app *fiber.App) {
	group := app.Group("/api/migration", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/jobs", api.MigrationController.UploadJob)
	group.Get("/jobs", api.MigrationController.ListJobs)
	group.Get("/jobs/:id", api.MigrationController.GetJob)
	group.Post("/jobs/:id/execute", api.MigrationController.ExecuteJob)
	group.Post("/jobs/:id/rollback", api.MigrationController.RollbackJob)
	group.Post("/jobs/:id/cancel", api.MigrationController.CancelJob)
}
