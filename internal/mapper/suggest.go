package mapper

import "strings"

// MappingSuggestion proposes a target field for a raw source column.
type MappingSuggestion struct {
	SourceField string `json:"source_field"`
	TargetField string `json:"target_field"`
	Required    bool   `json:"required"`
}

// headerSynonyms maps header-name substrings to target fields. Order
// matters: more specific substrings come before generic ones.
var headerSynonyms = []struct {
	substring string
	target    string
}{
	{"short_description", "title"},
	{"summary", "title"},
	{"subject", "title"},
	{"title", "title"},
	{"description", "description"},
	{"details", "description"},
	{"notes", "description"},
	{"priority", "priority"},
	{"urgency", "priority"},
	{"severity", "priority"},
	{"state", "status"},
	{"status", "status"},
	{"risk", "risk_level"},
	{"assignee", "assigned_to_email"},
	{"assigned", "assigned_to_email"},
	{"owner", "assigned_to_email"},
	{"responsible", "assigned_to_email"},
	{"requester", "requester_email"},
	{"caller", "requester_email"},
	{"reporter", "requester_email"},
	{"category", "category"},
	{"email", "email"},
	{"mail", "email"},
	{"name", "name"},
	{"closed", "closed_at"},
	{"resolved", "closed_at"},
	{"created", "created_at"},
	{"opened", "created_at"},
}

// requiredSuggestionTargets are always flagged required when suggested.
var requiredSuggestionTargets = map[string]bool{
	"title":    true,
	"priority": true,
	"status":   true,
}

// SuggestMappings proposes target fields for raw column headers by
// substring match against the synonym dictionary. Each target is claimed
// at most once; unmatched headers are left out.
func SuggestMappings(headers []string) []MappingSuggestion {
	var suggestions []MappingSuggestion
	usedTargets := make(map[string]bool)

	for _, header := range headers {
		normalized := normalizeHeader(header)
		for _, syn := range headerSynonyms {
			if !strings.Contains(normalized, syn.substring) || usedTargets[syn.target] {
				continue
			}
			suggestions = append(suggestions, MappingSuggestion{
				SourceField: header,
				TargetField: syn.target,
				Required:    requiredSuggestionTargets[syn.target],
			})
			usedTargets[syn.target] = true
			break
		}
	}

	return suggestions
}

func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
