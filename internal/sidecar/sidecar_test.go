package sidecar_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"arkival/internal/sidecar"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSidecar(t *testing.T) {
	assert.True(t, sidecar.IsSidecar("metadata.json"))
	assert.True(t, sidecar.IsSidecar("Metadata.CSV"))
	assert.True(t, sidecar.IsSidecar("metadata.xlsx"))
	assert.False(t, sidecar.IsSidecar("metadata.yaml"))
	assert.False(t, sidecar.IsSidecar("photo.jpg"))
}

func TestFind_PrecedenceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "metadata.csv", "title\nSunrise\n")
	writeFile(t, dir, "metadata.json", `{"title": "Sunrise"}`)

	assert.Equal(t, filepath.Join(dir, "metadata.json"), sidecar.Find(dir))
}

func TestFind_NoSidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "photo.jpg", "not metadata")

	assert.Equal(t, "", sidecar.Find(dir))
}

func TestRead_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.json", `{
		"title": "Sunrise Over Harbor",
		"keywords": ["dawn", "water"],
		"notes": null
	}`)

	md, err := sidecar.Read(path)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"Sunrise Over Harbor"}, md["title"].RawValue)
	assert.Equal(t, []interface{}{"dawn", "water"}, md["keywords"].RawValue)
	assert.Empty(t, md["notes"].RawValue)
}

func TestRead_JSONMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.json", `{"title": `)

	_, err := sidecar.Read(path)
	assert.Error(t, err)
}

func TestRead_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.csv",
		"title,keywords,notes\nSunrise Over Harbor,dawn | water,\n")

	md, err := sidecar.Read(path)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"Sunrise Over Harbor"}, md["title"].RawValue)
	assert.Equal(t, []interface{}{"dawn", "water"}, md["keywords"].RawValue)
	assert.Empty(t, md["notes"].RawValue)
}

func TestRead_CSVRejectsExtraDataRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.csv",
		"title\nFirst Row\nSecond Row\n")

	_, err := sidecar.Read(path)
	assert.ErrorContains(t, err, "more than one data row")
}

func TestRead_CSVWithBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.csv", "\xef\xbb\xbftitle\nSunrise\n")

	md, err := sidecar.Read(path)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"Sunrise"}, md["title"].RawValue)
}

func TestRead_XLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.xlsx")

	f := excelize.NewFile()
	assert.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"title", "keywords"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"Sunrise Over Harbor", "dawn|water"}))
	assert.NoError(t, f.SaveAs(path))

	md, err := sidecar.Read(path)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"Sunrise Over Harbor"}, md["title"].RawValue)
	assert.Equal(t, []interface{}{"dawn", "water"}, md["keywords"].RawValue)
}

func TestRead_XLSXRejectsExtraDataRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.xlsx")

	f := excelize.NewFile()
	assert.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"title"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"First Row"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]string{"Second Row"}))
	assert.NoError(t, f.SaveAs(path))

	_, err := sidecar.Read(path)
	assert.ErrorContains(t, err, "more than one data row")
}

func TestRead_XLSXToleratesBlankTrailingRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.xlsx")

	f := excelize.NewFile()
	assert.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"title"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"Sunrise"}))
	assert.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]string{"", ""}))
	assert.NoError(t, f.SaveAs(path))

	md, err := sidecar.Read(path)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{"Sunrise"}, md["title"].RawValue)
}

func TestRead_UnrecognizedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "metadata.yaml", "title: Sunrise")

	_, err := sidecar.Read(path)
	assert.Error(t, err)
}
