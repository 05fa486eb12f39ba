package importer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// XLSX files are OOXML zip archives. Only the pieces a catalog upload needs
// are parsed here: the shared-string table and the cells of the first
// worksheet.

type xlsxSharedStrings struct {
	Items []xlsxStringItem `xml:"si"`
}

type xlsxStringItem struct {
	Text string     `xml:"t"`
	Runs []xlsxText `xml:"r"`
}

type xlsxText struct {
	Text string `xml:"t"`
}

func (si xlsxStringItem) value() string {
	if len(si.Runs) == 0 {
		return si.Text
	}
	var b strings.Builder
	for _, r := range si.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type xlsxWorksheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

func readXLSX(file io.Reader) ([]Row, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("importer: read xlsx: %w", err)
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("importer: open xlsx: %w", err)
	}

	shared, err := readSharedStrings(archive)
	if err != nil {
		return nil, err
	}
	sheet, err := readFirstSheet(archive)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		record := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			col := columnIndex(cell.Ref)
			for len(record) <= col {
				record = append(record, "")
			}
			record[col] = cellValue(cell, shared)
		}
		records = append(records, record)
	}
	return assemble(records), nil
}

func readSharedStrings(archive *zip.Reader) ([]string, error) {
	f := findFile(archive, "xl/sharedStrings.xml")
	if f == nil {
		return nil, nil
	}
	var sst xlsxSharedStrings
	if err := decodeXML(f, &sst); err != nil {
		return nil, fmt.Errorf("importer: shared strings: %w", err)
	}
	values := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		values[i] = item.value()
	}
	return values, nil
}

func readFirstSheet(archive *zip.Reader) (*xlsxWorksheet, error) {
	var names []string
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("importer: xlsx has no worksheets")
	}
	sort.Strings(names)
	var sheet xlsxWorksheet
	if err := decodeXML(findFile(archive, names[0]), &sheet); err != nil {
		return nil, fmt.Errorf("importer: worksheet: %w", err)
	}
	return &sheet, nil
}

func findFile(archive *zip.Reader, name string) *zip.File {
	for _, f := range archive.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func cellValue(cell xlsxCell, shared []string) string {
	switch cell.Type {
	case "s":
		idx, err := strconv.Atoi(cell.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "inlineStr":
		return cell.Inline
	default:
		return cell.Value
	}
}

// columnIndex converts a cell reference like "B7" to a zero-based column.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
	}
	if col == 0 {
		return 0
	}
	return col - 1
}
