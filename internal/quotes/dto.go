package quotes

import (
	"net/url"
	"strings"
)

// Actor identifies who is performing a quote operation. Admins see every
// quote; a representante only their own.
type Actor struct {
	Username      string
	Representante string
	Admin         bool
}

// CanAccess reports whether the actor may touch the quote.
func (a Actor) CanAccess(q *Quote) bool {
	if a.Admin {
		return true
	}
	if q.Representante == nil {
		return false
	}
	return *q.Representante == a.Representante
}

// LineInputs carries the parallel arrays the quote form posts, one slice per
// column. Rows are aligned by index; arrays may have different lengths.
type LineInputs struct {
	Nombres       []string
	Unidades      []string
	Cantidades    []string
	Precios       []string
	Descuentos    []string
	Sistemas      []string
	Descripciones []string
}

// At returns the i-th value of a column, or "" past its end.
func at(values []string, i int) string {
	if i >= len(values) {
		return ""
	}
	return strings.TrimSpace(values[i])
}

// Len is the number of form rows, taking the longest column.
func (in LineInputs) Len() int {
	n := len(in.Nombres)
	for _, col := range [][]string{in.Unidades, in.Cantidades, in.Precios} {
		if len(col) > n {
			n = len(col)
		}
	}
	return n
}

// SaveRequest is the quote form payload, used for both create and update.
type SaveRequest struct {
	Cliente     string
	Empresa     string
	Responsable string
	Correo      string
	Telefono    string
	Direccion   string
	RFC         string
	Zona        string
	IVAPorc     string
	Estatus     string
	Notas       string
	Items       LineInputs
}

// ParseSaveRequest reads the posted quote form.
func ParseSaveRequest(form url.Values) SaveRequest {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(form.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	return SaveRequest{
		Cliente:     first("cliente", "cliente_nombre"),
		Empresa:     first("empresa"),
		Responsable: first("responsable"),
		Correo:      first("correo"),
		Telefono:    first("telefono"),
		Direccion:   first("direccion"),
		RFC:         first("rfc"),
		Zona:        first("zona"),
		IVAPorc:     first("iva_porc"),
		Estatus:     first("estatus"),
		Notas:       form.Get("notas"),
		Items: LineInputs{
			Nombres:       form["item_nombre_concepto[]"],
			Unidades:      form["item_unidad[]"],
			Cantidades:    form["item_cantidad[]"],
			Precios:       form["item_precio[]"],
			Descuentos:    form["item_descuento[]"],
			Sistemas:      form["item_sistema[]"],
			Descripciones: form["item_descripcion[]"],
		},
	}
}

// BuildLedger turns the form rows into a ledger under the given discount
// configuration. Rows without a concept name are dropped; numeric cells go
// through the permissive coercion of the ledger itself.
func (r SaveRequest) BuildLedger(mode DiscountMode, defaultTax float64) *Ledger {
	l := NewLedger(mode)
	// drop the seeded default row; the form dictates the rows
	for _, li := range l.Lines() {
		l.RemoveLine(li.Ref)
	}

	for i := 0; i < r.Items.Len(); i++ {
		nombre := at(r.Items.Nombres, i)
		if nombre == "" {
			continue
		}
		ref := l.AddLine()
		l.UpdateField(ref, FieldConcept, nombre)
		l.UpdateField(ref, FieldUnit, at(r.Items.Unidades, i))
		l.UpdateField(ref, FieldQuantity, at(r.Items.Cantidades, i))
		l.UpdateField(ref, FieldUnitPrice, at(r.Items.Precios, i))
		l.UpdateField(ref, FieldDiscountPct, at(r.Items.Descuentos, i))
		l.UpdateField(ref, FieldSystemTag, at(r.Items.Sistemas, i))
		l.UpdateField(ref, FieldDescription, at(r.Items.Descripciones, i))
	}

	l.SetZone(r.Zona)
	if strings.TrimSpace(r.IVAPorc) == "" {
		l.taxPct = defaultTax
	} else {
		l.SetTaxPercent(r.IVAPorc)
	}
	return l
}

// SubmitResponse is the JSON contract of quote submission: a single object
// for success and failure alike.
type SubmitResponse struct {
	OK    bool   `json:"ok"`
	ID    int64  `json:"id,omitempty"`
	Folio string `json:"folio,omitempty"`
	Error string `json:"error,omitempty"`
}
