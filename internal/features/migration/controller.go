package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/config"
	"firelater-migrate/internal/importer"
	"firelater-migrate/internal/middleware"
	"firelater-migrate/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type MigrationController struct {
	MigrationService MigrationService
	UploadDir        string
	Config           *config.Config
}

func NewMigrationController(migrationService MigrationService, cfg *config.Config) *MigrationController {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		os.MkdirAll(cfg.FSPath, 0755)
	}
	return &MigrationController{
		MigrationService: migrationService,
		UploadDir:        cfg.FSPath,
		Config:           cfg,
	}
}

type executeBody struct {
	MappingOverride  *models.FieldMappingConfig `json:"mapping_override,omitempty"`
	ContinueOnError  *bool                      `json:"continue_on_error,omitempty"`
	BatchSize        int                        `json:"batch_size"`
	DetectDuplicates *bool                      `json:"detect_duplicates,omitempty"`
	UpdateExisting   *bool                      `json:"update_existing,omitempty"`
}

// UploadJob godoc
// @Summary Upload a source export
// @Description Upload a source-system export, create a migration job and return its preview
// @Tags migration
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Export File"
// @Param source_system formData string true "Source System"
// @Param entity_kind formData string true "Entity Kind"
// @Param template_id formData string false "Mapping Template ID"
// @Param dry_run formData bool false "Dry Run"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/migration/jobs [post]
func (c *MigrationController) UploadJob(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	sourceSystem := ctx.FormValue("source_system")
	entityKind := ctx.FormValue("entity_kind")
	if sourceSystem == "" || entityKind == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "source_system and entity_kind are required"})
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	originalName := filepath.Base(fileHeader.Filename)
	ext := filepath.Ext(originalName)
	base := utils.Slugify(strings.TrimSuffix(originalName, ext))
	uniqueName := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), base, ext)
	dstPath := filepath.Join(c.UploadDir, uniqueName)

	if err := ctx.SaveFile(fileHeader, dstPath); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error saving file"})
	}

	data, err := os.ReadFile(dstPath)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error reading saved file"})
	}

	var delimiter rune
	if d := ctx.FormValue("delimiter"); d != "" {
		delimiter = []rune(d)[0]
	}

	job, preview, err := c.MigrationService.Upload(ctx.UserContext(), UploadRequest{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		SourceSystem: models.SourceSystem(sourceSystem),
		EntityKind:   models.EntityKind(entityKind),
		FileName:     originalName,
		FilePath:     dstPath,
		Data:         data,
		TemplateID:   ctx.FormValue("template_id"),
		DryRun:       ctx.FormValue("dry_run") == "true",
		Delimiter:    delimiter,
	})
	if err != nil {
		os.Remove(dstPath)
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"job":     job,
		"preview": preview,
	})
}

// ExecuteJob godoc
// @Summary Execute a migration job
// @Description Run the import for a pending or previewed job; the call blocks until the batch finishes
// @Tags migration
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} ExecutionReport
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/migration/jobs/{id}/execute [post]
func (c *MigrationController) ExecuteJob(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}
	id := ctx.Params("id")

	var body executeBody
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&body); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	req := ExecuteRequest{
		MappingOverride:  body.MappingOverride,
		ContinueOnError:  true,
		BatchSize:        body.BatchSize,
		DetectDuplicates: true,
		UpdateExisting:   true,
	}
	if body.ContinueOnError != nil {
		req.ContinueOnError = *body.ContinueOnError
	}
	if body.DetectDuplicates != nil {
		req.DetectDuplicates = *body.DetectDuplicates
	}
	if body.UpdateExisting != nil {
		req.UpdateExisting = *body.UpdateExisting
	}

	report, err := c.MigrationService.Execute(ctx.UserContext(), claims.TenantID, id, req)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Job is not in an executable state"})
		}
		if errors.Is(err, importer.ErrUnsupportedEntity) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(report)
}

// GetJob godoc
// @Summary Get a migration job
// @Tags migration
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} MigrationJob
// @Failure 404 {object} map[string]interface{}
// @Router /api/migration/jobs/{id} [get]
func (c *MigrationController) GetJob(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	job, err := c.MigrationService.GetJob(ctx.UserContext(), claims.TenantID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Job not found"})
	}

	return ctx.JSON(job)
}

// ListJobs godoc
// @Summary List migration jobs
// @Tags migration
// @Produce json
// @Param limit query int false "Limit (1-100)"
// @Success 200 {array} MigrationJob
// @Router /api/migration/jobs [get]
func (c *MigrationController) ListJobs(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	limit := ctx.QueryInt("limit", 50)
	jobs, err := c.MigrationService.ListJobs(ctx.UserContext(), claims.TenantID, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(jobs)
}

// RollbackJob godoc
// @Summary Roll back a completed migration job
// @Description Delete every target row the job produced, along with its provenance entries
// @Tags migration
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/migration/jobs/{id}/rollback [post]
func (c *MigrationController) RollbackJob(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	id := ctx.Params("id")
	removed, err := c.MigrationService.Rollback(ctx.UserContext(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only completed jobs can be rolled back"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"job_id":              id,
		"rolled_back_records": removed,
		"status":              StatusRolledBack,
	})
}

// CancelJob godoc
// @Summary Cancel a pending migration job
// @Tags migration
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/migration/jobs/{id}/cancel [post]
func (c *MigrationController) CancelJob(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	id := ctx.Params("id")
	if err := c.MigrationService.Cancel(ctx.UserContext(), claims.TenantID, id); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Job can no longer be cancelled"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"job_id": id, "status": StatusCancelled})
}
