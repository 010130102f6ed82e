package migration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/config"
	"firelater-migrate/internal/database"
	"firelater-migrate/internal/importer"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mockJobRepo is an in-memory JobRepository for service tests.
type mockJobRepo struct {
	jobs          map[string]*MigrationJob
	claimErr      error
	statusUpdates []JobStatus
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*MigrationJob)}
}

func (m *mockJobRepo) Create(ctx context.Context, job *MigrationJob) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	m.jobs[job.ID.Hex()] = job
	return nil
}

func (m *mockJobRepo) Get(ctx context.Context, id string) (*MigrationJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (m *mockJobRepo) Update(ctx context.Context, id string, job *MigrationJob) error {
	m.jobs[id] = job
	return nil
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, id string, status JobStatus) error {
	m.statusUpdates = append(m.statusUpdates, status)
	if job, ok := m.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (m *mockJobRepo) ClaimForExecution(ctx context.Context, id string) error {
	if m.claimErr != nil {
		return m.claimErr
	}
	job, ok := m.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if job.Status != StatusPending && job.Status != StatusPreview {
		return ErrInvalidState
	}
	job.Status = StatusProcessing
	return nil
}

func (m *mockJobRepo) FindByTenant(ctx context.Context, tenantID string, limit int) ([]MigrationJob, error) {
	var out []MigrationJob
	for _, job := range m.jobs {
		if job.TenantID == tenantID && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

type mockTemplates struct {
	cfg *models.FieldMappingConfig
	err error
}

func (m *mockTemplates) ResolveConfig(ctx context.Context, tenantID, templateID string) (*models.FieldMappingConfig, error) {
	return m.cfg, m.err
}

func newTestService(repo JobRepository, templates TemplateResolver) *MigrationServiceImpl {
	cfg := &config.Config{PreviewSampleSize: 5, DefaultBatchSize: 100}
	target := &database.TargetDB{DBType: "postgresql"}
	return &MigrationServiceImpl{
		JobRepo:   repo,
		Templates: templates,
		Target:    target,
		Registry:  importer.NewRegistry(target, zap.NewNop()),
		Config:    cfg,
		Logger:    zap.NewNop(),
	}
}

const csvData = "number,short_description,priority,state,unmapped_col\nINC001,Printer down,3,1,x\nINC002,Email outage,1,2,y\nINC003,VPN slow,4,6,z\n"

func uploadReq() UploadRequest {
	return UploadRequest{
		TenantID:     "t1",
		UserID:       "u1",
		SourceSystem: models.SourceGeneric,
		EntityKind:   models.EntityIncident,
		FileName:     "export.csv",
		Data:         []byte(csvData),
	}
}

func TestUploadBuildsPreview(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	job, preview, err := service.Upload(context.Background(), uploadReq())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if job.Status != StatusPending {
		t.Errorf("Status = %v, want pending", job.Status)
	}
	if job.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", job.TotalRecords)
	}
	if job.MappingConfig == nil {
		t.Fatal("MappingConfig not snapshotted")
	}

	if preview.TotalRecords != 3 {
		t.Errorf("preview.TotalRecords = %d, want 3", preview.TotalRecords)
	}
	if len(preview.SampleRecords) != 3 {
		t.Errorf("len(SampleRecords) = %d, want 3", len(preview.SampleRecords))
	}

	foundUnmapped := false
	for _, f := range preview.UnmappedSourceFields {
		if f == "unmapped_col" {
			foundUnmapped = true
		}
	}
	if !foundUnmapped {
		t.Errorf("UnmappedSourceFields = %v, want unmapped_col listed", preview.UnmappedSourceFields)
	}
	if len(preview.MissingRequiredTargets) != 0 {
		t.Errorf("MissingRequiredTargets = %v, want none for default mapping", preview.MissingRequiredTargets)
	}
}

func TestUploadDryRunStatus(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	req := uploadReq()
	req.DryRun = true
	job, _, err := service.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if job.Status != StatusPreview {
		t.Errorf("Status = %v, want preview", job.Status)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	service := newTestService(newMockJobRepo(), &mockTemplates{})

	tests := []struct {
		name   string
		mutate func(*UploadRequest)
	}{
		{name: "unknown source system", mutate: func(r *UploadRequest) { r.SourceSystem = "remedy" }},
		{name: "unknown entity kind", mutate: func(r *UploadRequest) { r.EntityKind = "asset" }},
		{name: "empty file", mutate: func(r *UploadRequest) { r.Data = []byte("number,short_description\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadReq()
			tt.mutate(&req)
			if _, _, err := service.Upload(context.Background(), req); err == nil {
				t.Error("Upload() expected error")
			}
		})
	}
}

func TestUploadTemplateResolutionFailure(t *testing.T) {
	service := newTestService(newMockJobRepo(), &mockTemplates{err: errors.New("gone")})

	req := uploadReq()
	req.TemplateID = "abc"
	if _, _, err := service.Upload(context.Background(), req); err == nil {
		t.Error("Upload() expected error for unresolvable template")
	}
}

func TestExecuteClaimConflict(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	job := &MigrationJob{TenantID: "t1", Status: StatusProcessing, EntityKind: models.EntityIncident}
	repo.Create(context.Background(), job)

	_, err := service.Execute(context.Background(), "t1", job.ID.Hex(), ExecuteRequest{})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Execute() error = %v, want ErrInvalidState", err)
	}
	// A losing claim must not push the job to failed.
	for _, status := range repo.statusUpdates {
		if status == StatusFailed {
			t.Error("job marked failed after losing the claim")
		}
	}
}

func TestExecuteUnsupportedEntityMarksFailed(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	job := &MigrationJob{TenantID: "t1", Status: StatusPending, EntityKind: models.EntityChange}
	repo.Create(context.Background(), job)

	_, err := service.Execute(context.Background(), "t1", job.ID.Hex(), ExecuteRequest{})
	if !errors.Is(err, importer.ErrUnsupportedEntity) {
		t.Fatalf("Execute() error = %v, want ErrUnsupportedEntity", err)
	}

	if got := repo.jobs[job.ID.Hex()].Status; got != StatusFailed {
		t.Errorf("Status = %v, want failed", got)
	}
}

func TestExecuteTenantScoping(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	job := &MigrationJob{TenantID: "t1", Status: StatusPending, EntityKind: models.EntityIncident}
	repo.Create(context.Background(), job)

	_, err := service.Execute(context.Background(), "t2", job.ID.Hex(), ExecuteRequest{})
	if err == nil {
		t.Fatal("Execute(other tenant) expected error")
	}

	// A foreign tenant must not move the job at all, neither claiming
	// it nor pushing it to failed.
	if got := repo.jobs[job.ID.Hex()].Status; got != StatusPending {
		t.Errorf("Status = %v, want pending", got)
	}
	if len(repo.statusUpdates) != 0 {
		t.Errorf("statusUpdates = %v, want none", repo.statusUpdates)
	}
}

func TestGetJobTenantScoping(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	job := &MigrationJob{TenantID: "t1", Status: StatusPending}
	repo.Create(context.Background(), job)

	if _, err := service.GetJob(context.Background(), "t1", job.ID.Hex()); err != nil {
		t.Errorf("GetJob(own tenant) error = %v", err)
	}
	if _, err := service.GetJob(context.Background(), "t2", job.ID.Hex()); err == nil {
		t.Error("GetJob(other tenant) expected error")
	}
}

func TestRollbackRequiresCompleted(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	statuses := []JobStatus{StatusPending, StatusProcessing, StatusFailed, StatusCancelled, StatusRolledBack}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			job := &MigrationJob{TenantID: "t1", Status: status, EntityKind: models.EntityIncident}
			repo.Create(context.Background(), job)

			_, err := service.Rollback(context.Background(), "t1", job.ID.Hex())
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("Rollback() error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	repo := newMockJobRepo()
	service := newTestService(repo, &mockTemplates{})

	tests := []struct {
		status  JobStatus
		wantErr bool
	}{
		{status: StatusPending},
		{status: StatusPreview},
		{status: StatusProcessing, wantErr: true},
		{status: StatusCompleted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &MigrationJob{TenantID: "t1", Status: tt.status}
			repo.Create(context.Background(), job)

			err := service.Cancel(context.Background(), "t1", job.ID.Hex())
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Errorf("Cancel() error = %v, want ErrInvalidState", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
			if got := repo.jobs[job.ID.Hex()].Status; got != StatusCancelled {
				t.Errorf("Status = %v, want cancelled", got)
			}
		})
	}
}

func TestPreviewMissingRequiredTargets(t *testing.T) {
	repo := newMockJobRepo()
	cfg := &models.FieldMappingConfig{
		EntityKind:   models.EntityIncident,
		SourceSystem: models.SourceGeneric,
		Mappings: []models.FieldMapping{
			{SourceField: "short_description", TargetField: "title", Required: true},
		},
	}
	service := newTestService(repo, &mockTemplates{cfg: cfg})

	req := uploadReq()
	req.TemplateID = "tpl1"
	_, preview, err := service.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := map[string]bool{"priority": true, "status": true}
	for _, f := range preview.MissingRequiredTargets {
		delete(want, f)
	}
	if len(want) != 0 {
		t.Errorf("MissingRequiredTargets = %v, missing %v", preview.MissingRequiredTargets, want)
	}

	foundWarning := false
	for _, r := range preview.Recommendations {
		if strings.Contains(r, "priority") {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Errorf("Recommendations = %v, want one naming priority", preview.Recommendations)
	}
}
