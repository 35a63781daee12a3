// Package sidecar reads raw asset metadata from sidecar files discovered
// next to the media during an ingest scan. Values are raw and unvalidated;
// the schema validator decides what they mean.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"arkival/internal/domain"
)

// Names recognized as sidecar metadata files, in precedence order.
var sidecarNames = []string{"metadata.json", "metadata.csv", "metadata.xlsx"}

// Reader parses one sidecar format into raw metadata.
type Reader func(path string) (domain.Metadata, error)

var readers = map[string]Reader{
	".json": readJSON,
	".csv":  readCSV,
	".xlsx": readXLSX,
}

// IsSidecar reports whether name is a recognized sidecar file name.
func IsSidecar(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range sidecarNames {
		if lower == n {
			return true
		}
	}
	return false
}

// Find returns the path of the sidecar file in dir, or "" when none exists.
func Find(dir string) string {
	for _, name := range sidecarNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Read parses the sidecar at path, dispatching on its extension.
func Read(path string) (domain.Metadata, error) {
	reader, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unrecognized sidecar format: %s", filepath.Base(path))
	}
	return reader(path)
}

// readJSON parses a JSON object mapping property id to a scalar or a list of
// scalars.
func readJSON(path string) (domain.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing sidecar json: %w", err)
	}

	md := make(domain.Metadata, len(raw))
	for id, v := range raw {
		switch vv := v.(type) {
		case nil:
			md[id] = domain.MetadataItem{RawValue: []interface{}{}}
		case []interface{}:
			md[id] = domain.MetadataItem{RawValue: vv}
		default:
			md[id] = domain.MetadataItem{RawValue: []interface{}{v}}
		}
	}
	return md, nil
}

// rowHasData reports whether any cell in the row is non-blank.
func rowHasData(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

// splitCell turns one tabular cell into raw values. Repeated values are
// separated by "|"; an empty cell is an empty list, not an empty string.
func splitCell(cell string) []interface{} {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return []interface{}{}
	}
	parts := strings.Split(cell, "|")
	values := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		values = append(values, strings.TrimSpace(p))
	}
	return values
}

// fromTable converts a header row plus the first data row into metadata.
func fromTable(header, row []string) domain.Metadata {
	md := make(domain.Metadata, len(header))
	for i, id := range header {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		md[id] = domain.MetadataItem{RawValue: splitCell(cell)}
	}
	return md
}
