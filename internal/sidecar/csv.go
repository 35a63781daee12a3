package sidecar

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"arkival/internal/domain"
)

// UTF-8 BOM bytes, stripped when spreadsheets exported on Windows carry one.
var bom = []byte{0xEF, 0xBB, 0xBF}

// readCSV parses a CSV sidecar: header row of property ids, a single data
// row of values ("|"-separated for repeated properties). Extra data rows are
// an error rather than silently dropped.
func readCSV(path string) (domain.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	data = bytes.TrimPrefix(data, bom)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing sidecar csv: %w", err)
	}
	if len(rows) == 0 {
		return domain.Metadata{}, nil
	}

	header := rows[0]
	var row []string
	if len(rows) > 1 {
		row = rows[1]
	}
	if len(rows) > 2 {
		for _, extra := range rows[2:] {
			if rowHasData(extra) {
				return nil, fmt.Errorf("sidecar has more than one data row")
			}
		}
	}
	return fromTable(header, row), nil
}
