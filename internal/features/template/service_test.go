package template

import (
	"context"
	"errors"
	"testing"

	"firelater-migrate/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type mockTemplateRepo struct {
	templates map[string]*MappingTemplate
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*MappingTemplate)}
}

func (m *mockTemplateRepo) Create(ctx context.Context, tpl *MappingTemplate) error {
	if tpl.ID.IsZero() {
		tpl.ID = primitive.NewObjectID()
	}
	m.templates[tpl.ID.Hex()] = tpl
	return nil
}

func (m *mockTemplateRepo) Get(ctx context.Context, id string) (*MappingTemplate, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *tpl
	return &copied, nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, tpl *MappingTemplate) error {
	m.templates[tpl.ID.Hex()] = tpl
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) FindByName(ctx context.Context, tenantID, name string) (*MappingTemplate, error) {
	for _, tpl := range m.templates {
		if tpl.TenantID == tenantID && tpl.Name == name {
			copied := *tpl
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockTemplateRepo) FindByTenant(ctx context.Context, tenantID string, source models.SourceSystem, kind models.EntityKind) ([]MappingTemplate, error) {
	var out []MappingTemplate
	for _, tpl := range m.templates {
		if tpl.TenantID != tenantID {
			continue
		}
		if source != "" && tpl.SourceSystem != source {
			continue
		}
		if kind != "" && tpl.EntityKind != kind {
			continue
		}
		out = append(out, *tpl)
	}
	return out, nil
}

func (m *mockTemplateRepo) EnsureIndexes(ctx context.Context) error { return nil }

func validRequest() CreateRequest {
	return CreateRequest{
		TenantID:     "t1",
		UserID:       "u1",
		Name:         "servicenow incidents",
		SourceSystem: models.SourceServiceNow,
		EntityKind:   models.EntityIncident,
		Config: models.FieldMappingConfig{
			Mappings: []models.FieldMapping{
				{SourceField: "short_description", TargetField: "title", Required: true},
			},
		},
	}
}

func TestCreateTemplate(t *testing.T) {
	service := NewTemplateService(newMockTemplateRepo(), zap.NewNop())

	tpl, err := service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tpl.ID.IsZero() {
		t.Error("ID not assigned")
	}
	if tpl.CreatedBy != "u1" {
		t.Errorf("CreatedBy = %q", tpl.CreatedBy)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	service := NewTemplateService(newMockTemplateRepo(), zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{name: "empty name", mutate: func(r *CreateRequest) { r.Name = "" }},
		{name: "unknown source", mutate: func(r *CreateRequest) { r.SourceSystem = "remedy" }},
		{name: "unknown kind", mutate: func(r *CreateRequest) { r.EntityKind = "asset" }},
		{name: "no mappings", mutate: func(r *CreateRequest) { r.Config.Mappings = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, err := service.Create(context.Background(), req); err == nil {
				t.Error("Create() expected error")
			}
		})
	}
}

func TestCreateTemplateDuplicateName(t *testing.T) {
	service := NewTemplateService(newMockTemplateRepo(), zap.NewNop())

	if _, err := service.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := service.Create(context.Background(), validRequest())
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("second Create() error = %v, want ErrDuplicateName", err)
	}

	// Same name under a different tenant is fine.
	req := validRequest()
	req.TenantID = "t2"
	if _, err := service.Create(context.Background(), req); err != nil {
		t.Errorf("Create() other tenant error = %v", err)
	}
}

func TestTemplateTenantScoping(t *testing.T) {
	service := NewTemplateService(newMockTemplateRepo(), zap.NewNop())

	tpl, err := service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.Get(context.Background(), "t1", tpl.ID.Hex()); err != nil {
		t.Errorf("Get(own tenant) error = %v", err)
	}
	if _, err := service.Get(context.Background(), "t2", tpl.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(other tenant) error = %v, want ErrNotFound", err)
	}
	if err := service.Delete(context.Background(), "t2", tpl.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(other tenant) error = %v, want ErrNotFound", err)
	}
}

func TestResolveConfig(t *testing.T) {
	service := NewTemplateService(newMockTemplateRepo(), zap.NewNop())

	tpl, err := service.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cfg, err := service.ResolveConfig(context.Background(), "t1", tpl.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if len(cfg.Mappings) != 1 || cfg.Mappings[0].TargetField != "title" {
		t.Errorf("Mappings = %+v", cfg.Mappings)
	}
}
