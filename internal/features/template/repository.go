package template

import (
	"context"
	"time"

	"firelater-migrate/internal/common/models"
	"firelater-migrate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TemplateRepository interface {
	Create(ctx context.Context, tpl *MappingTemplate) error
	Get(ctx context.Context, id string) (*MappingTemplate, error)
	Update(ctx context.Context, tpl *MappingTemplate) error
	Delete(ctx context.Context, id string) error
	FindByName(ctx context.Context, tenantID, name string) (*MappingTemplate, error)
	FindByTenant(ctx context.Context, tenantID string, source models.SourceSystem, kind models.EntityKind) ([]MappingTemplate, error)
	EnsureIndexes(ctx context.Context) error
}

type TemplateRepositoryImpl struct {
	collection *mongo.Collection
}

func NewTemplateRepository(db *database.MongodbDB) TemplateRepository {
	return &TemplateRepositoryImpl{
		collection: db.DB.Collection("mapping_templates"),
	}
}

// EnsureIndexes creates the per-tenant unique name index.
func (r *TemplateRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, tpl *MappingTemplate) error {
	if tpl.ID.IsZero() {
		tpl.ID = primitive.NewObjectID()
	}
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, tpl)
	return err
}

func (r *TemplateRepositoryImpl) Get(ctx context.Context, id string) (*MappingTemplate, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var tpl MappingTemplate
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) Update(ctx context.Context, tpl *MappingTemplate) error {
	existing, err := r.Get(ctx, tpl.ID.Hex())
	if err != nil {
		return err
	}

	// Preserve immutable fields
	tpl.TenantID = existing.TenantID
	tpl.CreatedBy = existing.CreatedBy
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = time.Now()

	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": tpl.ID}, tpl)
	return err
}

func (r *TemplateRepositoryImpl) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

func (r *TemplateRepositoryImpl) FindByName(ctx context.Context, tenantID, name string) (*MappingTemplate, error) {
	var tpl MappingTemplate
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "name": name}).Decode(&tpl)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) FindByTenant(ctx context.Context, tenantID string, source models.SourceSystem, kind models.EntityKind) ([]MappingTemplate, error) {
	filter := bson.M{"tenant_id": tenantID}
	if source != "" {
		filter["source_system"] = source
	}
	if kind != "" {
		filter["entity_kind"] = kind
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []MappingTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}
