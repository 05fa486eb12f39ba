package importer

import (
	"archive/zip"
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRowsCSV(t *testing.T) {
	csv := "Nombre,Empresa,Teléfono\nAcme,ACME SA,555-1234\nBeta,,\n"
	rows, err := ReadRows("clientes.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Acme", rows[0].Get("nombre", "nombre_cliente"))
	assert.Equal(t, "ACME SA", rows[0]["empresa"])
	assert.Equal(t, "555-1234", rows[0]["telefono"])
	assert.Equal(t, "Beta", rows[1].Get("nombre"))
	assert.Empty(t, rows[1]["empresa"])
}

func TestReadRowsCSVAliasHeaders(t *testing.T) {
	csv := "nombre_cliente,Correo\nGamma,g@example.com\n"
	rows, err := ReadRows("upload.CSV", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gamma", rows[0].Get("nombre", "nombre_cliente"))
	assert.Equal(t, "g@example.com", rows[0]["correo"])
}

func TestRowPrice(t *testing.T) {
	row := Row{"precio_unitario": "$1,250.50"}
	assert.Equal(t, 1250.50, row.Price("precio_unitario"))

	assert.Zero(t, Row{"precio_unitario": "n/a"}.Price("precio_unitario"))
	assert.Zero(t, Row{"precio_unitario": "-5"}.Price("precio_unitario"))
	assert.Zero(t, Row{}.Price("precio_unitario"))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "precio_unitario", NormalizeHeader("Precio Unitario"))
	assert.Equal(t, "descripcion", NormalizeHeader("Descripción"))
	assert.Equal(t, "telefono", NormalizeHeader(" Teléfono "))
	assert.Equal(t, "nombre_concepto", NormalizeHeader("nombre_concepto"))
}

func TestReadRowsUnsupportedFormat(t *testing.T) {
	_, err := ReadRows("clientes.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadRowsXLSX(t *testing.T) {
	book := buildWorkbook(t, []string{"Nombre", "Precio Unitario"}, [][]string{
		{"Pintura epóxica", "350.00"},
		{"Sellador", "$1,100.00"},
	})
	rows, err := ReadRows("conceptos.xlsx", bytes.NewReader(book))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Pintura epóxica", rows[0]["nombre"])
	assert.Equal(t, 350.0, rows[0].Price("precio_unitario"))
	assert.Equal(t, 1100.0, rows[1].Price("precio_unitario"))
}

// buildWorkbook writes a minimal OOXML workbook with every cell stored in the
// shared-string table, the way spreadsheet software saves text columns.
func buildWorkbook(t *testing.T, headers []string, data [][]string) []byte {
	t.Helper()

	var shared []string
	index := func(s string) int {
		for i, v := range shared {
			if v == s {
				return i
			}
		}
		shared = append(shared, s)
		return len(shared) - 1
	}

	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0"?><worksheet><sheetData>`)
	all := append([][]string{headers}, data...)
	for r, row := range all {
		sheet.WriteString(`<row>`)
		for c, cell := range row {
			ref := string(rune('A'+c)) + strconv.Itoa(r+1)
			sheet.WriteString(`<c r="` + ref + `" t="s"><v>` + strconv.Itoa(index(cell)) + `</v></c>`)
		}
		sheet.WriteString(`</row>`)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	var sst strings.Builder
	sst.WriteString(`<?xml version="1.0"?><sst>`)
	for _, s := range shared {
		sst.WriteString(`<si><t>` + s + `</t></si>`)
	}
	sst.WriteString(`</sst>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"xl/sharedStrings.xml":     sst.String(),
		"xl/worksheets/sheet1.xml": sheet.String(),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
