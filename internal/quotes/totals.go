package quotes

// Totals is the aggregate computed from a full line collection plus the zone
// and tax inputs. It has no lifecycle of its own: every relevant change
// recomputes it from scratch, end to end.
type Totals struct {
	Subtotal        float64
	ZoneDiscountPct float64
	DiscountAmount  float64
	AfterDiscount   float64
	TaxPct          float64
	TaxAmount       float64
	GrandTotal      float64
}

// ComputeTotals runs the totals pipeline in its fixed order:
//
//  1. sum the derived line subtotals
//  2. resolve the zone discount percentage (zone configuration only)
//  3. discount amount and discounted subtotal
//  4. tax on the discounted subtotal
//  5. grand total
//
// Lines whose inputs coerced to nothing contribute 0, never an error.
func ComputeTotals(lines []LineItem, mode DiscountMode, zone string, taxPct float64) Totals {
	var subtotal float64
	for _, li := range lines {
		if s := li.Subtotal(); s > 0 {
			subtotal += s
		}
	}

	zonePct := mode.ZonePercent(zone)
	discount := subtotal * zonePct / 100
	afterDiscount := subtotal - discount

	if taxPct < 0 {
		taxPct = 0
	}
	tax := afterDiscount * taxPct / 100

	return Totals{
		Subtotal:        subtotal,
		ZoneDiscountPct: zonePct,
		DiscountAmount:  discount,
		AfterDiscount:   afterDiscount,
		TaxPct:          taxPct,
		TaxAmount:       tax,
		GrandTotal:      afterDiscount + tax,
	}
}
