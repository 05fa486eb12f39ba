package quotes

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zoneLedger() *Ledger {
	return NewLedger(ZoneDiscountMode(nil))
}

func TestNewLedgerSeedsOneDefaultRow(t *testing.T) {
	l := zoneLedger()
	require.Equal(t, 1, l.Len())

	row := l.Lines()[0]
	assert.Equal(t, 1.0, row.Quantity)
	assert.Zero(t, row.UnitPrice)
	assert.Empty(t, row.Concept)
}

func TestLineSubtotalDerivation(t *testing.T) {
	l := NewLedger(LineDiscountMode())
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "2")
	l.UpdateField(ref, FieldUnitPrice, "100")
	l.UpdateField(ref, FieldDiscountPct, "10")

	assert.InDelta(t, 180.0, l.Lines()[0].Subtotal(), 1e-9)
	assert.InDelta(t, 180.0, l.Totals().Subtotal, 1e-9)
}

func TestLineSubtotalsAreIndependent(t *testing.T) {
	l := zoneLedger()
	first := l.Lines()[0].Ref
	l.UpdateField(first, FieldQuantity, "3")
	l.UpdateField(first, FieldUnitPrice, "50")

	second := l.AddLine()
	l.UpdateField(second, FieldQuantity, "10")
	l.UpdateField(second, FieldUnitPrice, "999")

	// editing the second row never changes the first row's subtotal
	assert.InDelta(t, 150.0, l.Lines()[0].Subtotal(), 1e-9)

	l.UpdateField(second, FieldUnitPrice, "1")
	assert.InDelta(t, 150.0, l.Lines()[0].Subtotal(), 1e-9)
}

func TestSubtotalIsSumOfLines(t *testing.T) {
	l := zoneLedger()
	refs := []int{l.Lines()[0].Ref, l.AddLine(), l.AddLine()}
	prices := []string{"100", "250.50", "49.50"}
	for i, ref := range refs {
		l.UpdateField(ref, FieldQuantity, "1")
		l.UpdateField(ref, FieldUnitPrice, prices[i])
	}

	assert.InDelta(t, 400.0, l.Totals().Subtotal, 1e-9)
}

func TestTotalsPipelineZoneAndTax(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "2")
	l.UpdateField(ref, FieldUnitPrice, "90")
	l.SetZone("Zona Sur")
	l.SetTaxPercent("16")

	got := l.Totals()
	assert.InDelta(t, 180.0, got.Subtotal, 1e-9)
	assert.InDelta(t, 15.0, got.ZoneDiscountPct, 1e-9)
	assert.InDelta(t, 27.0, got.DiscountAmount, 1e-9)
	assert.InDelta(t, 153.0, got.AfterDiscount, 1e-9)
	assert.InDelta(t, 24.48, got.TaxAmount, 1e-9)
	assert.InDelta(t, 177.48, got.GrandTotal, 1e-9)

	// grand total identity
	assert.InDelta(t, got.AfterDiscount+got.TaxAmount, got.GrandTotal, 1e-9)
}

func TestZoneLookupIsExactMatch(t *testing.T) {
	mode := ZoneDiscountMode(nil)
	assert.Equal(t, 15.0, mode.ZonePercent("Zona Sur"))
	assert.Zero(t, mode.ZonePercent("zona sur"))
	assert.Zero(t, mode.ZonePercent("Zona Sur "))
	assert.Zero(t, mode.ZonePercent("Zona Desconocida"))
	assert.Zero(t, mode.ZonePercent(""))
}

func TestTotalsIdempotent(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "7")
	l.UpdateField(ref, FieldUnitPrice, "13.37")
	l.SetZone("Bajío")
	l.SetTaxPercent("16")

	assert.Equal(t, l.Totals(), l.Totals())
}

func TestEmptyLedgerTotalsAreZero(t *testing.T) {
	l := zoneLedger()
	require.True(t, l.RemoveLine(l.Lines()[0].Ref))
	require.Zero(t, l.Len())

	l.SetZone("Zona Sur")
	l.SetTaxPercent("16")
	got := l.Totals()
	assert.Zero(t, got.Subtotal)
	assert.Zero(t, got.DiscountAmount)
	assert.Zero(t, got.TaxAmount)
	assert.Zero(t, got.GrandTotal)
}

func TestMalformedNumericInputCoercesToZero(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "abc")
	l.UpdateField(ref, FieldUnitPrice, "12..5")

	row := l.Lines()[0]
	assert.Zero(t, row.Quantity)
	assert.Zero(t, row.UnitPrice)
	assert.Zero(t, row.Subtotal())
}

func TestNegativeInputsClampToZero(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "-3")
	l.UpdateField(ref, FieldUnitPrice, "100")

	assert.Zero(t, l.Lines()[0].Subtotal())
	assert.Zero(t, l.Totals().Subtotal)

	l.SetTaxPercent("-16")
	assert.Zero(t, l.Totals().TaxAmount)
}

func TestParseAmountStripsCurrencyFormatting(t *testing.T) {
	assert.Equal(t, 1250.5, ParseAmount("$1,250.50", 0))
	assert.Equal(t, 42.0, ParseAmount("  42  ", 0))
	assert.Equal(t, 7.0, ParseAmount("", 7))
	assert.Zero(t, ParseAmount("n/a", 0))
	assert.Zero(t, ParseAmount("-10", 0))
}

func TestDiscountFieldOnlyInLineMode(t *testing.T) {
	zone := zoneLedger()
	ref := zone.Lines()[0].Ref
	assert.False(t, zone.UpdateField(ref, FieldDiscountPct, "10"))
	assert.Zero(t, zone.Lines()[0].DiscountPct)

	line := NewLedger(LineDiscountMode())
	ref = line.Lines()[0].Ref
	assert.True(t, line.UpdateField(ref, FieldDiscountPct, "150"))
	assert.Equal(t, 100.0, line.Lines()[0].DiscountPct)
	assert.False(t, line.UpdateField(ref, FieldSystemTag, "Epóxico"))
}

func TestSystemTagPresentWhenLineDiscountAbsent(t *testing.T) {
	for _, mode := range []DiscountMode{NoDiscountMode(), ZoneDiscountMode(nil)} {
		l := NewLedger(mode)
		ref := l.Lines()[0].Ref
		assert.True(t, l.UpdateField(ref, FieldSystemTag, "Poliuretano"))
		assert.Equal(t, "Poliuretano", l.Lines()[0].SystemTag)
	}
}

func TestZoneDiscountIgnoredOutsideZoneMode(t *testing.T) {
	l := NewLedger(NoDiscountMode())
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "2")
	l.UpdateField(ref, FieldUnitPrice, "100")
	l.SetZone("Zona Sur")
	l.SetTaxPercent("16")

	got := l.Totals()
	assert.Zero(t, got.DiscountAmount)
	assert.InDelta(t, 232.0, got.GrandTotal, 1e-9)
}

func TestApplyConceptSelectionIsAtomic(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	l.UpdateField(ref, FieldQuantity, "4")

	require.True(t, l.ApplyConceptSelection(ref, ConceptSelection{
		Name:        "Pintura epóxica",
		Unit:        "m2",
		UnitPrice:   350,
		Description: "Dos manos",
		SystemTag:   "Epóxico",
	}))

	row := l.Lines()[0]
	assert.Equal(t, "Pintura epóxica", row.Concept)
	assert.Equal(t, "m2", row.Unit)
	assert.Equal(t, 350.0, row.UnitPrice)
	assert.Equal(t, "Epóxico", row.SystemTag)
	// quantity untouched, subtotal recomputed from the new price
	assert.Equal(t, 4.0, row.Quantity)
	assert.InDelta(t, 1400.0, row.Subtotal(), 1e-9)
}

func TestBuildLedgerReadsPostedLineDiscount(t *testing.T) {
	form := url.Values{
		"item_nombre_concepto[]": {"Impermeabilizante"},
		"item_cantidad[]":        {"2"},
		"item_precio[]":          {"100"},
		"item_descuento[]":       {"10"},
	}

	l := ParseSaveRequest(form).BuildLedger(LineDiscountMode(), 16)
	require.Equal(t, 1, l.Len())
	assert.InDelta(t, 10.0, l.Lines()[0].DiscountPct, 1e-9)

	got := l.Totals()
	assert.InDelta(t, 180.0, got.Subtotal, 1e-9)
	assert.InDelta(t, 208.8, got.GrandTotal, 1e-9)
}

func TestRemoveLastLineLeavesLedgerEmpty(t *testing.T) {
	l := zoneLedger()
	ref := l.Lines()[0].Ref
	require.True(t, l.RemoveLine(ref))
	assert.Zero(t, l.Len())
	assert.False(t, l.RemoveLine(ref))
}
