// Package parser detects source export formats and normalizes them into
// ParsedRecords for the field mapper. Parsing is a pure in-memory
// transform; nothing here touches a datastore.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"firelater-migrate/internal/common/models"
)

// Format is a detected source file dialect.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatExcel Format = "excel"
)

// maxFlattenDepth bounds reference-field flattening. Deeper subtrees are
// dropped rather than recursed into.
const maxFlattenDepth = 8

// ParseOptions tune a single parse run.
type ParseOptions struct {
	Delimiter rune   // CSV delimiter, ',' when zero
	Filename  string // used only to recognize spreadsheet uploads
}

// ParseResult is the outcome of parsing one uploaded file.
type ParseResult struct {
	Records     []models.ParsedRecord
	Errors      []models.MigrationError
	TotalRows   int
	SkippedRows int
}

// idColumns is the priority list used to derive a record's source id.
var idColumns = []string{
	"number", "sys_id", "id", "ticket_id", "incident_id",
	"request_id", "case_id", "key", "ref",
}

// Detect inspects a leading byte window and picks the dialect. Ambiguous
// content falls back to the dialect the declared source system exports.
func Detect(data []byte, source models.SourceSystem, filename string) Format {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return FormatExcel
	}

	window := data
	if len(window) > 512 {
		window = window[:512]
	}
	trimmed := strings.TrimLeft(string(window), " \t\r\n\uFEFF")
	if strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<") {
		return FormatXML
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}

	// ServiceNow exports markup even when the preamble is missing.
	if source == models.SourceServiceNow {
		return FormatXML
	}
	return FormatCSV
}

// Parse detects the format and produces normalized records. A file that
// yields zero usable records is a hard failure regardless of how many
// per-row errors were collected.
func Parse(data []byte, source models.SourceSystem, kind models.EntityKind, opts ParseOptions) (*ParseResult, error) {
	var (
		result *ParseResult
		err    error
	)

	switch Detect(data, source, opts.Filename) {
	case FormatXML:
		result, err = parseXML(data, source, kind)
	case FormatJSON:
		result, err = parseJSON(data, source, kind)
	case FormatExcel:
		result, err = parseExcel(data, source, kind)
	default:
		result, err = parseCSV(data, source, kind, opts.Delimiter)
	}
	if err != nil {
		return nil, err
	}

	if len(result.Records) == 0 {
		return nil, fmt.Errorf("no usable records found in uploaded file (%d rows, %d errors)",
			result.TotalRows, len(result.Errors))
	}
	return result, nil
}

// sourceIDFor derives the record's source id from the first recognized
// id-like key, else a synthetic row_<index> value.
func sourceIDFor(data map[string]any, index int) string {
	for _, col := range idColumns {
		if v, ok := data[col]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return "row_" + strconv.Itoa(index)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func rowError(index int, sourceID, field, msg string) models.MigrationError {
	return models.MigrationError{
		RecordIndex: index,
		SourceID:    sourceID,
		ErrorType:   models.ErrorTypeValidation,
		Field:       field,
		Message:     msg,
		Timestamp:   time.Now(),
	}
}
