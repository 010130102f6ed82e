package mapper

import (
	"testing"

	"firelater-migrate/internal/common/models"
)

func record(data map[string]any) models.ParsedRecord {
	return models.ParsedRecord{
		SourceID:   "INC001",
		EntityKind: models.EntityIncident,
		Data:       data,
	}
}

func TestMapRecord(t *testing.T) {
	cfg := &models.FieldMappingConfig{
		EntityKind:   models.EntityIncident,
		SourceSystem: models.SourceGeneric,
		Mappings: []models.FieldMapping{
			{SourceField: "short_description", TargetField: "title", Transform: models.TransformTrim, Required: true},
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
			{SourceField: "category", TargetField: "category"},
			{SourceField: "notes", TargetField: "description", DefaultValue: "n/a"},
		},
	}

	data, errs, warnings := MapRecord(record(map[string]any{
		"short_description": "  Printer down  ",
		"priority":          "1",
	}), cfg, 1)

	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
	if data["title"] != "Printer down" {
		t.Errorf("title = %v, want trimmed value", data["title"])
	}
	if data["priority"] != "1" {
		t.Errorf("priority = %v, want 1", data["priority"])
	}
	// Optional with no source value and no default: field stays absent.
	if _, ok := data["category"]; ok {
		t.Error("category should be absent")
	}
	// Optional with default.
	if data["description"] != "n/a" {
		t.Errorf("description = %v, want n/a", data["description"])
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestMapRecordRequiredDefault(t *testing.T) {
	cfg := &models.FieldMappingConfig{
		Mappings: []models.FieldMapping{
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
		},
	}

	data, errs, warnings := MapRecord(record(map[string]any{}), cfg, 1)

	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
	if data["priority"] != "3" {
		t.Errorf("priority = %v, want default 3", data["priority"])
	}
	if len(warnings) != 1 {
		t.Errorf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestMapRecordRequiredMissing(t *testing.T) {
	cfg := &models.FieldMappingConfig{
		Mappings: []models.FieldMapping{
			{SourceField: "short_description", TargetField: "title", Required: true},
			{SourceField: "state", TargetField: "status"},
		},
	}

	data, errs, _ := MapRecord(record(map[string]any{"state": "1"}), cfg, 4)

	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if errs[0].ErrorType != models.ErrorTypeValidation {
		t.Errorf("ErrorType = %v", errs[0].ErrorType)
	}
	if errs[0].Field != "title" {
		t.Errorf("Field = %q, want title", errs[0].Field)
	}
	if errs[0].RecordIndex != 4 {
		t.Errorf("RecordIndex = %d, want 4", errs[0].RecordIndex)
	}
	if _, ok := data["title"]; ok {
		t.Error("title should be absent after failure")
	}
	// Other fields still mapped.
	if data["status"] != "1" {
		t.Errorf("status = %v, want 1", data["status"])
	}
}

func TestMapRecordEmptyStringTreatedAsAbsent(t *testing.T) {
	cfg := &models.FieldMappingConfig{
		Mappings: []models.FieldMapping{
			{SourceField: "priority", TargetField: "priority", Required: true, DefaultValue: "3"},
		},
	}

	data, _, warnings := MapRecord(record(map[string]any{"priority": "   "}), cfg, 1)

	if data["priority"] != "3" {
		t.Errorf("priority = %v, want default for blank source value", data["priority"])
	}
	if len(warnings) != 1 {
		t.Errorf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestResolvePath(t *testing.T) {
	data := map[string]any{
		"fields.status": "direct",
		"issue": map[string]any{
			"fields": map[string]any{"summary": "nested"},
		},
	}

	tests := []struct {
		name      string
		path      string
		want      any
		wantFound bool
	}{
		{name: "flat key with dot wins", path: "fields.status", want: "direct", wantFound: true},
		{name: "nested traversal", path: "issue.fields.summary", want: "nested", wantFound: true},
		{name: "absent path", path: "issue.fields.missing", wantFound: false},
		{name: "traversal through scalar", path: "issue.fields.summary.deeper", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := resolvePath(data, tt.path)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("resolvePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyTransforms(t *testing.T) {
	cfg := &models.FieldMappingConfig{
		LookupTables: map[string]map[string]string{
			"status": {"1": "open", "7": "closed"},
		},
	}

	tests := []struct {
		name      string
		transform models.TransformType
		lookup    string
		value     any
		want      any
		wantErr   bool
	}{
		{name: "none passes through", transform: models.TransformNone, value: 42.0, want: 42.0},
		{name: "uppercase", transform: models.TransformUppercase, value: "high", want: "HIGH"},
		{name: "lowercase", transform: models.TransformLowercase, value: "Open", want: "open"},
		{name: "trim", transform: models.TransformTrim, value: "  x  ", want: "x"},
		{name: "parse_date", transform: models.TransformParseDate, value: "2024-03-01", want: "2024-03-01T00:00:00Z"},
		{name: "parse_date bad value", transform: models.TransformParseDate, value: "soon", wantErr: true},
		{name: "parse_bool truthy", transform: models.TransformParseBool, value: "Yes", want: true},
		{name: "parse_bool falsy", transform: models.TransformParseBool, value: "inactive", want: false},
		{name: "parse_bool numeric", transform: models.TransformParseBool, value: "0", want: false},
		{name: "parse_bool unknown token", transform: models.TransformParseBool, value: "maybe", wantErr: true},
		{name: "lookup hit", transform: models.TransformLookup, lookup: "status", value: "1", want: "open"},
		{name: "lookup miss passes through", transform: models.TransformLookup, lookup: "status", value: "99", want: "99"},
		{name: "lookup unknown table passes through", transform: models.TransformLookup, lookup: "nope", value: "1", want: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.FieldMapping{Transform: tt.transform, LookupTable: tt.lookup}
			got, err := applyTransform(tt.value, m, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyTransform() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("applyTransform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceBoolTotality(t *testing.T) {
	// Every token in both sets must coerce without error, case folded.
	for token := range truthyTokens {
		if got, err := coerceBool(token); err != nil || !got {
			t.Errorf("coerceBool(%q) = %v, %v; want true", token, got, err)
		}
	}
	for token := range falsyTokens {
		if got, err := coerceBool(token); err != nil || got {
			t.Errorf("coerceBool(%q) = %v, %v; want false", token, got, err)
		}
	}
	if _, err := coerceBool("TRUE"); err != nil {
		t.Errorf("coerceBool is not case-insensitive: %v", err)
	}
}

func TestValidateForEntity(t *testing.T) {
	tests := []struct {
		name         string
		kind         models.EntityKind
		data         TargetData
		wantProblems int
	}{
		{
			name:         "valid incident",
			kind:         models.EntityIncident,
			data:         TargetData{"title": "x", "priority": "2", "status": "open"},
			wantProblems: 0,
		},
		{
			name:         "missing status",
			kind:         models.EntityIncident,
			data:         TargetData{"title": "x", "priority": "2"},
			wantProblems: 1,
		},
		{
			name:         "priority out of range",
			kind:         models.EntityIncident,
			data:         TargetData{"title": "x", "priority": "9", "status": "open"},
			wantProblems: 1,
		},
		{
			name:         "priority not numeric",
			kind:         models.EntityRequest,
			data:         TargetData{"title": "x", "priority": "urgent", "status": "open"},
			wantProblems: 1,
		},
		{
			name:         "change requires risk_level",
			kind:         models.EntityChange,
			data:         TargetData{"title": "x", "status": "open"},
			wantProblems: 1,
		},
		{
			name:         "user requires email and name",
			kind:         models.EntityUser,
			data:         TargetData{},
			wantProblems: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateForEntity(tt.kind, tt.data)
			if len(problems) != tt.wantProblems {
				t.Errorf("ValidateForEntity() = %v, want %d problems", problems, tt.wantProblems)
			}
		})
	}
}

func TestValidateNormalizesPriority(t *testing.T) {
	data := TargetData{"title": "x", "priority": "2", "status": "open"}
	if problems := ValidateForEntity(models.EntityIncident, data); len(problems) != 0 {
		t.Fatalf("problems = %v", problems)
	}
	if data["priority"] != 2 {
		t.Errorf("priority = %v (%T), want int 2", data["priority"], data["priority"])
	}
}

func TestSuggestMappings(t *testing.T) {
	suggestions := SuggestMappings([]string{"Short Description", "Urgency", "state", "Assigned To", "whatever_col"})

	byTarget := make(map[string]MappingSuggestion)
	for _, s := range suggestions {
		byTarget[s.TargetField] = s
	}

	if s, ok := byTarget["title"]; !ok || s.SourceField != "Short Description" || !s.Required {
		t.Errorf("title suggestion = %+v", byTarget["title"])
	}
	if s, ok := byTarget["priority"]; !ok || s.SourceField != "Urgency" {
		t.Errorf("priority suggestion = %+v", byTarget["priority"])
	}
	if s, ok := byTarget["status"]; !ok || s.SourceField != "state" {
		t.Errorf("status suggestion = %+v", byTarget["status"])
	}
	if s, ok := byTarget["assigned_to_email"]; !ok || s.SourceField != "Assigned To" {
		t.Errorf("assigned_to_email suggestion = %+v", byTarget["assigned_to_email"])
	}
	if _, ok := byTarget["whatever_col"]; ok {
		t.Error("unmatched header should produce no suggestion")
	}
}

func TestSuggestMappingsClaimsTargetOnce(t *testing.T) {
	suggestions := SuggestMappings([]string{"summary", "subject", "title"})
	if len(suggestions) != 1 {
		t.Fatalf("len = %d, want 1; each target claimed at most once", len(suggestions))
	}
	if suggestions[0].SourceField != "summary" {
		t.Errorf("SourceField = %q, want first header to win", suggestions[0].SourceField)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(models.SourceServiceNow, models.EntityIncident)

	var title, status *models.FieldMapping
	for i := range cfg.Mappings {
		switch cfg.Mappings[i].TargetField {
		case "title":
			title = &cfg.Mappings[i]
		case "status":
			status = &cfg.Mappings[i]
		}
	}

	if title == nil || title.SourceField != "short_description" || !title.Required {
		t.Errorf("title mapping = %+v", title)
	}
	if status == nil || status.Transform != models.TransformLookup {
		t.Errorf("status mapping = %+v", status)
	}

	if v, ok := cfg.LookupValue("status", "6"); !ok || v != "resolved" {
		t.Errorf("status lookup 6 = %q, %v", v, ok)
	}

	userCfg := DefaultConfig(models.SourceJira, models.EntityUser)
	if userCfg.Mappings[0].SourceField != "emailAddress" {
		t.Errorf("jira user email field = %q", userCfg.Mappings[0].SourceField)
	}
}
