package template

import (
	"context"
	"errors"
	"fmt"

	"firelater-migrate/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrDuplicateName = errors.New("a template with this name already exists")
	ErrNotFound      = errors.New("template not found")
)

// CreateRequest carries a new template definition.
type CreateRequest struct {
	TenantID     string
	UserID       string
	Name         string
	Description  string
	SourceSystem models.SourceSystem
	EntityKind   models.EntityKind
	Config       models.FieldMappingConfig
}

type TemplateService interface {
	Create(ctx context.Context, req CreateRequest) (*MappingTemplate, error)
	Get(ctx context.Context, tenantID, id string) (*MappingTemplate, error)
	List(ctx context.Context, tenantID string, source models.SourceSystem, kind models.EntityKind) ([]MappingTemplate, error)
	Update(ctx context.Context, tenantID, id string, req CreateRequest) (*MappingTemplate, error)
	Delete(ctx context.Context, tenantID, id string) error

	// ResolveConfig loads a template's mapping configuration for use by
	// a migration run.
	ResolveConfig(ctx context.Context, tenantID, templateID string) (*models.FieldMappingConfig, error)
}

type TemplateServiceImpl struct {
	Repo   TemplateRepository
	Logger *zap.Logger
}

func NewTemplateService(repo TemplateRepository, logger *zap.Logger) TemplateService {
	return &TemplateServiceImpl{Repo: repo, Logger: logger}
}

func (s *TemplateServiceImpl) validate(req CreateRequest) error {
	if req.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if !models.ValidSourceSystem(req.SourceSystem) {
		return fmt.Errorf("unknown source system %q", req.SourceSystem)
	}
	if !models.ValidEntityKind(req.EntityKind) {
		return fmt.Errorf("unknown entity kind %q", req.EntityKind)
	}
	if len(req.Config.Mappings) == 0 {
		return fmt.Errorf("template must define at least one field mapping")
	}
	return nil
}

func (s *TemplateServiceImpl) Create(ctx context.Context, req CreateRequest) (*MappingTemplate, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if _, err := s.Repo.FindByName(ctx, req.TenantID, req.Name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	tpl := &MappingTemplate{
		TenantID:     req.TenantID,
		Name:         req.Name,
		Description:  req.Description,
		SourceSystem: req.SourceSystem,
		EntityKind:   req.EntityKind,
		Config:       req.Config,
		CreatedBy:    req.UserID,
	}
	if err := s.Repo.Create(ctx, tpl); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	s.Logger.Info("mapping template created",
		zap.String("template_id", tpl.ID.Hex()),
		zap.String("tenant_id", req.TenantID),
		zap.String("name", req.Name))

	return tpl, nil
}

func (s *TemplateServiceImpl) Get(ctx context.Context, tenantID, id string) (*MappingTemplate, error) {
	tpl, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tpl.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return tpl, nil
}

func (s *TemplateServiceImpl) List(ctx context.Context, tenantID string, source models.SourceSystem, kind models.EntityKind) ([]MappingTemplate, error) {
	return s.Repo.FindByTenant(ctx, tenantID, source, kind)
}

func (s *TemplateServiceImpl) Update(ctx context.Context, tenantID, id string, req CreateRequest) (*MappingTemplate, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	tpl, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if existing, err := s.Repo.FindByName(ctx, tenantID, req.Name); err == nil && existing.ID != tpl.ID {
		return nil, ErrDuplicateName
	}

	tpl.Name = req.Name
	tpl.Description = req.Description
	tpl.SourceSystem = req.SourceSystem
	tpl.EntityKind = req.EntityKind
	tpl.Config = req.Config

	if err := s.Repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *TemplateServiceImpl) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}

func (s *TemplateServiceImpl) ResolveConfig(ctx context.Context, tenantID, templateID string) (*models.FieldMappingConfig, error) {
	tpl, err := s.Get(ctx, tenantID, templateID)
	if err != nil {
		return nil, err
	}
	cfg := tpl.Config
	return &cfg, nil
}
