package models

// TransformType is the closed set of per-field transformations. Source
// systems that allowed arbitrary transform functions are expressed through
// this enumeration plus the config lookup tables instead.
type TransformType string

const (
	TransformNone      TransformType = ""
	TransformUppercase TransformType = "uppercase"
	TransformLowercase TransformType = "lowercase"
	TransformTrim      TransformType = "trim"
	TransformParseDate TransformType = "parse_date"
	TransformParseBool TransformType = "parse_bool"
	TransformLookup    TransformType = "lookup" // substitute via a config lookup table
)

// FieldMapping maps one source field onto one target field.
type FieldMapping struct {
	SourceField  string        `json:"source_field" bson:"source_field"` // dot-addressable for nested payloads
	TargetField  string        `json:"target_field" bson:"target_field"`
	Transform    TransformType `json:"transform,omitempty" bson:"transform,omitempty"`
	LookupTable  string        `json:"lookup_table,omitempty" bson:"lookup_table,omitempty"` // table name for TransformLookup
	Required     bool          `json:"required" bson:"required"`
	DefaultValue string        `json:"default_value,omitempty" bson:"default_value,omitempty"`
}

// FieldMappingConfig is the ordered set of mapping rules plus lookup
// tables for one source system / entity kind pair.
type FieldMappingConfig struct {
	EntityKind   EntityKind                   `json:"entity_kind" bson:"entity_kind"`
	SourceSystem SourceSystem                 `json:"source_system" bson:"source_system"`
	Mappings     []FieldMapping               `json:"mappings" bson:"mappings"`
	LookupTables map[string]map[string]string `json:"lookup_tables,omitempty" bson:"lookup_tables,omitempty"`
}

// LookupValue resolves raw through the named lookup table. The second
// return is false when the table or key is missing.
func (c *FieldMappingConfig) LookupValue(table, raw string) (string, bool) {
	if c.LookupTables == nil {
		return "", false
	}
	t, ok := c.LookupTables[table]
	if !ok {
		return "", false
	}
	v, ok := t[raw]
	return v, ok
}
