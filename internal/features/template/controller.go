package template

import (
	"errors"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TemplateController struct {
	TemplateService TemplateService
}

func NewTemplateController(templateService TemplateService) *TemplateController {
	return &TemplateController{TemplateService: templateService}
}

type templateBody struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	SourceSystem string                    `json:"source_system"`
	EntityKind   string                    `json:"entity_kind"`
	Config       models.FieldMappingConfig `json:"config"`
}

// CreateTemplate godoc
// @Summary Create a mapping template
// @Tags templates
// @Accept json
// @Produce json
// @Success 201 {object} MappingTemplate
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/templates [post]
func (c *TemplateController) CreateTemplate(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	var body templateBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tpl, err := c.TemplateService.Create(ctx.UserContext(), CreateRequest{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		Name:         body.Name,
		Description:  body.Description,
		SourceSystem: models.SourceSystem(body.SourceSystem),
		EntityKind:   models.EntityKind(body.EntityKind),
		Config:       body.Config,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(tpl)
}

// ListTemplates godoc
// @Summary List mapping templates
// @Tags templates
// @Produce json
// @Param source_system query string false "Source System"
// @Param entity_kind query string false "Entity Kind"
// @Success 200 {array} MappingTemplate
// @Router /api/templates [get]
func (c *TemplateController) ListTemplates(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	templates, err := c.TemplateService.List(ctx.UserContext(), claims.TenantID,
		models.SourceSystem(ctx.Query("source_system")),
		models.EntityKind(ctx.Query("entity_kind")))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(templates)
}

// GetTemplate godoc
// @Summary Get a mapping template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} MappingTemplate
// @Failure 404 {object} map[string]interface{}
// @Router /api/templates/{id} [get]
func (c *TemplateController) GetTemplate(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	tpl, err := c.TemplateService.Get(ctx.UserContext(), claims.TenantID, ctx.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(tpl)
}

// UpdateTemplate godoc
// @Summary Update a mapping template
// @Tags templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} MappingTemplate
// @Failure 404 {object} map[string]interface{}
// @Router /api/templates/{id} [put]
func (c *TemplateController) UpdateTemplate(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	var body templateBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tpl, err := c.TemplateService.Update(ctx.UserContext(), claims.TenantID, ctx.Params("id"), CreateRequest{
		TenantID:     claims.TenantID,
		Name:         body.Name,
		Description:  body.Description,
		SourceSystem: models.SourceSystem(body.SourceSystem),
		EntityKind:   models.EntityKind(body.EntityKind),
		Config:       body.Config,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
		case errors.Is(err, ErrDuplicateName):
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return ctx.JSON(tpl)
}

// DeleteTemplate godoc
// @Summary Delete a mapping template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/templates/{id} [delete]
func (c *TemplateController) DeleteTemplate(ctx *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User claims not found"})
	}

	if err := c.TemplateService.Delete(ctx.UserContext(), claims.TenantID, ctx.Params("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"deleted": true})
}
