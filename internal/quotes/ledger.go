package quotes

import (
	"strconv"
	"strings"
)

// Field names accepted by Ledger.UpdateField.
type Field string

const (
	FieldConcept     Field = "concepto"
	FieldUnit        Field = "unidad"
	FieldQuantity    Field = "cantidad"
	FieldUnitPrice   Field = "precio_unitario"
	FieldDiscountPct Field = "descuento_pct"
	FieldSystemTag   Field = "sistema"
	FieldDescription Field = "descripcion"
)

// LineItem is one editable row of the quote ledger. Its subtotal is always
// derived from the other fields, never stored as authoritative state.
type LineItem struct {
	Ref         int
	Concept     string
	Unit        string
	Quantity    float64
	UnitPrice   float64
	DiscountPct float64
	SystemTag   string
	Description string
}

// Subtotal derives the line amount: quantity × unit price × (1 − discount/100).
func (li LineItem) Subtotal() float64 {
	return li.Quantity * li.UnitPrice * (1 - li.DiscountPct/100)
}

// ConceptSelection carries the fields a suggestion candidate populates in one
// atomic update.
type ConceptSelection struct {
	Name        string
	Unit        string
	UnitPrice   float64
	Description string
	SystemTag   string
}

// Ledger is the in-memory ordered collection of line items backing a quote
// form. It is owned by a single goroutine; every mutation triggers a full
// recomputation of the aggregate totals.
type Ledger struct {
	mode    DiscountMode
	zone    string
	taxPct  float64
	nextRef int
	lines   []LineItem
}

// NewLedger returns a ledger configured with the given discount mechanism,
// seeded with one default row.
func NewLedger(mode DiscountMode) *Ledger {
	l := &Ledger{mode: mode, nextRef: 1}
	l.AddLine()
	return l
}

// Mode exposes the active discount configuration.
func (l *Ledger) Mode() DiscountMode { return l.mode }

// Lines returns the rows in order. The slice is a copy; mutate through the
// ledger operations only.
func (l *Ledger) Lines() []LineItem {
	out := make([]LineItem, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of rows.
func (l *Ledger) Len() int { return len(l.lines) }

// AddLine appends a row with default values (quantity 1, price 0) and returns
// its reference.
func (l *Ledger) AddLine() int {
	ref := l.nextRef
	l.nextRef++
	l.lines = append(l.lines, LineItem{Ref: ref, Quantity: 1})
	return ref
}

// RemoveLine deletes the referenced row. Removing the last row leaves the
// ledger empty; no replacement row is created. Returns false when the
// reference does not exist.
func (l *Ledger) RemoveLine(ref int) bool {
	for i, li := range l.lines {
		if li.Ref == ref {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateField sets one field on one row. Numeric input is coerced permissively:
// any parse failure becomes 0 and never surfaces as an error, so typing is
// never blocked. The discount field is clamped to [0,100] and only honoured in
// the line-discount configuration; the system tag only in configurations that
// carry it.
func (l *Ledger) UpdateField(ref int, field Field, value string) bool {
	li := l.find(ref)
	if li == nil {
		return false
	}
	switch field {
	case FieldConcept:
		li.Concept = value
	case FieldUnit:
		li.Unit = value
	case FieldQuantity:
		li.Quantity = ParseAmount(value, 0)
	case FieldUnitPrice:
		li.UnitPrice = ParseAmount(value, 0)
	case FieldDiscountPct:
		if !l.mode.HasLineDiscount() {
			return false
		}
		li.DiscountPct = clampPercent(ParseAmount(value, 0))
	case FieldSystemTag:
		if !l.mode.HasSystemTag() {
			return false
		}
		li.SystemTag = value
	case FieldDescription:
		li.Description = value
	default:
		return false
	}
	return true
}

// ApplyConceptSelection overwrites the mapped destination fields of one row in
// a single update, as happens when the user picks a suggestion.
func (l *Ledger) ApplyConceptSelection(ref int, sel ConceptSelection) bool {
	li := l.find(ref)
	if li == nil {
		return false
	}
	li.Concept = sel.Name
	li.Unit = sel.Unit
	li.UnitPrice = sel.UnitPrice
	li.Description = sel.Description
	if l.mode.HasSystemTag() {
		li.SystemTag = sel.SystemTag
	}
	return true
}

// SetZone records the zone selector value used by the zone-discount lookup.
func (l *Ledger) SetZone(zone string) {
	l.zone = strings.TrimSpace(zone)
}

// SetTaxPercent coerces and stores the tax percentage. Parse failures become
// 0 and negatives are clamped to 0.
func (l *Ledger) SetTaxPercent(value string) {
	pct := ParseAmount(value, 0)
	if pct < 0 {
		pct = 0
	}
	l.taxPct = pct
}

// Totals recomputes the aggregate pipeline from scratch. The computation is a
// pure function of the current rows, zone and tax percentage, so calling it
// twice without intervening changes yields identical results.
func (l *Ledger) Totals() Totals {
	return ComputeTotals(l.lines, l.mode, l.zone, l.taxPct)
}

func (l *Ledger) find(ref int) *LineItem {
	for i := range l.lines {
		if l.lines[i].Ref == ref {
			return &l.lines[i]
		}
	}
	return nil
}

// ParseAmount parses user-supplied numeric input permissively: currency
// symbols and thousands separators are stripped, surrounding space ignored,
// and anything unparsable resolves to the fallback instead of an error.
// Negative amounts are clamped to 0; quantities, prices and percentages in
// this domain are never negative.
func ParseAmount(value string, fallback float64) float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return fallback
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	if n < 0 {
		return 0
	}
	return n
}

func clampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
