// Package importer reads catalog upload files (CSV or XLSX) into normalized
// rows so each catalog can map them onto its own records.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedFormat is returned for extensions other than .csv/.xlsx/.xls.
var ErrUnsupportedFormat = errors.New("importer: unsupported file format, use CSV or XLSX")

// Row maps normalized column headers to cell values.
type Row map[string]string

// Get returns the first non-empty value among the given header aliases.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Price parses a monetary cell permissively: currency symbol and thousands
// separators stripped, parse failure coerced to 0.
func (r Row) Price(keys ...string) float64 {
	raw := r.Get(keys...)
	if raw == "" {
		return 0
	}
	s := strings.ReplaceAll(raw, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ReadRows parses the uploaded file into rows keyed by normalized headers.
// The format is chosen by file extension.
func ReadRows(filename string, file io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(file)
	case ".xlsx", ".xls":
		return readXLSX(file)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readCSV(file io.Reader) ([]Row, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: read csv: %w", err)
	}
	return assemble(records), nil
}

func assemble(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = NormalizeHeader(h)
	}
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	return rows
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader lowercases a header, strips accents and replaces spaces
// with underscores, so "Precio Unitario" and "precio_unitario" address the
// same column.
func NormalizeHeader(header string) string {
	h := strings.TrimSpace(strings.ToLower(header))
	if stripped, _, err := transform.String(accentStripper, h); err == nil {
		h = stripped
	}
	h = strings.ReplaceAll(h, " ", "_")
	return h
}
