package sidecar

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"arkival/internal/domain"
)

// readXLSX parses an XLSX sidecar: first sheet, same column convention as
// the CSV form.
func readXLSX(path string) (domain.Metadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening sidecar xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar xlsx: %w", err)
	}
	if len(rows) == 0 {
		return domain.Metadata{}, nil
	}

	header := rows[0]
	var row []string
	if len(rows) > 1 {
		row = rows[1]
	}
	// Spreadsheets often carry trailing blank rows; only rows with content
	// count as data.
	if len(rows) > 2 {
		for _, extra := range rows[2:] {
			if rowHasData(extra) {
				return nil, fmt.Errorf("sidecar has more than one data row")
			}
		}
	}
	return fromTable(header, row), nil
}
