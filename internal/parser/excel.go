package parser

import (
	"bytes"
	"fmt"
	"strings"

	"firelater-migrate/internal/common/models"

	"github.com/xuri/excelize/v2"
)

// parseExcel reads the first sheet of a spreadsheet export. The first row
// is treated as column headers, same as the delimited parser.
func parseExcel(data []byte, source models.SourceSystem, kind models.EntityKind) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("Excel file is empty")
	}

	headers := rows[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	result := &ParseResult{}
	for i := 1; i < len(rows); i++ {
		result.TotalRows++

		if isEmptyRow(rows[i]) {
			result.SkippedRows++
			continue
		}

		payload := make(map[string]any, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) {
				payload[headers[j]] = cell
			}
		}

		result.Records = append(result.Records, models.ParsedRecord{
			SourceID:   sourceIDFor(payload, i),
			EntityKind: kind,
			Data:       payload,
			Meta:       extractMeta(payload, source),
		})
	}

	return result, nil
}
