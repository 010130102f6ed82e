package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"firelater-migrate/internal/common/models"
)

// parseCSV reads a delimited file. The first row is treated as column
// headers, fully empty rows are skipped, and ragged rows are recorded as
// per-row errors without aborting the batch.
func parseCSV(data []byte, source models.SourceSystem, kind models.EntityKind, delimiter rune) (*ParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	result := &ParseResult{}
	rowIndex := 0

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowIndex++
		result.TotalRows++

		if err != nil {
			// Ragged or malformed row. The reader keeps going, so we
			// record and continue.
			result.Errors = append(result.Errors, rowError(rowIndex, "", "", fmt.Sprintf("failed to read row: %v", err)))
			continue
		}

		if isEmptyRow(row) {
			result.SkippedRows++
			continue
		}

		payload := make(map[string]any, len(headers))
		for i, value := range row {
			if i < len(headers) {
				payload[headers[i]] = value
			}
		}

		result.Records = append(result.Records, models.ParsedRecord{
			SourceID:   sourceIDFor(payload, rowIndex),
			EntityKind: kind,
			Data:       payload,
			Meta:       extractMeta(payload, source),
		})
	}

	return result, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
