package template

import (
	"time"

	"firelater-migrate/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MappingTemplate is a named, reusable field mapping configuration
// scoped to a tenant. Template names are unique per tenant.
type MappingTemplate struct {
	ID           primitive.ObjectID        `json:"id" bson:"_id,omitempty"`
	TenantID     string                    `json:"tenant_id" bson:"tenant_id"`
	Name         string                    `json:"name" bson:"name"`
	Description  string                    `json:"description,omitempty" bson:"description,omitempty"`
	SourceSystem models.SourceSystem       `json:"source_system" bson:"source_system"`
	EntityKind   models.EntityKind         `json:"entity_kind" bson:"entity_kind"`
	Config       models.FieldMappingConfig `json:"config" bson:"config"`
	CreatedBy    string                    `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time                 `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at" bson:"updated_at"`
}
