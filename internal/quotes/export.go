package quotes

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
)

// WriteCSV streams one quote as CSV: a header block with the frozen totals,
// a blank row, then the line items.
func WriteCSV(w io.Writer, qc *QuoteWithClient, lines []QuoteLine) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Folio", "Fecha", "Estatus", "Representante", "Cliente", "Empresa", "Subtotal", "IVA %", "IVA $", "Total", "Notas"}); err != nil {
		return err
	}
	representante := ""
	if qc.Representante != nil {
		representante = *qc.Representante
	}
	notas := ""
	if qc.Notas != nil {
		notas = *qc.Notas
	}
	if err := cw.Write([]string{
		qc.Folio,
		qc.Fecha.Format("2006-01-02 15:04"),
		string(qc.Estatus),
		representante,
		qc.ClienteNombre,
		qc.ClienteEmpresa,
		fmt.Sprintf("%.2f", qc.Subtotal),
		fmt.Sprintf("%.2f", qc.IVAPorc),
		fmt.Sprintf("%.2f", qc.IVAMonto),
		fmt.Sprintf("%.2f", qc.Total),
		notas,
	}); err != nil {
		return err
	}

	if err := cw.Write([]string{}); err != nil {
		return err
	}
	if err := cw.Write([]string{"Cant", "Unidad", "Concepto", "Sistema", "PU", "Desc %", "Subtotal", "Descripción"}); err != nil {
		return err
	}
	for _, l := range lines {
		sistema := ""
		if l.Sistema != nil {
			sistema = *l.Sistema
		}
		if err := cw.Write([]string{
			fmt.Sprintf("%g", l.Cantidad),
			l.Unidad,
			l.Nombre,
			sistema,
			fmt.Sprintf("%.2f", l.Precio),
			fmt.Sprintf("%g", l.Descuento),
			fmt.Sprintf("%.2f", l.Subtotal),
			l.Descripcion,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV serves the quote as a CSV download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	qc, lines, ok := h.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+qc.Folio+`.csv"`)
	if err := WriteCSV(w, qc, lines); err != nil {
		h.logger.Error("export csv failed", "error", err, "folio", qc.Folio)
	}
}
