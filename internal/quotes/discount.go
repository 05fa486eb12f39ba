package quotes

import "sort"

// DiscountKind identifies which discount mechanism a deployment runs with.
// The three mechanisms are mutually exclusive: a ledger either carries a
// per-line percentage, or a flat zone-based percentage applied to the
// aggregate subtotal, or no discount at all (lines then carry a free-text
// system tag instead).
type DiscountKind int

const (
	// NoDiscount disables discounts entirely; lines expose a system tag.
	NoDiscount DiscountKind = iota
	// LineDiscount applies a per-line percentage clamped to [0,100].
	LineDiscount
	// ZoneDiscount applies a table-driven percentage to the subtotal.
	ZoneDiscount
)

// DiscountMode bundles the active mechanism with its zone table, when any.
type DiscountMode struct {
	kind  DiscountKind
	zones map[string]float64
}

// DefaultZoneTable is the flat-rate discount table keyed by exact zone name.
// Lookups are case-sensitive; unknown or empty zones resolve to 0%.
var DefaultZoneTable = map[string]float64{
	"Zona Norte":  10.0,
	"Zona Centro": 5.0,
	"Bajío":       10.0,
	"Zona Sur":    15.0,
	"Frontera":    8.0,
}

// NoDiscountMode returns the configuration without any discount mechanism.
func NoDiscountMode() DiscountMode {
	return DiscountMode{kind: NoDiscount}
}

// LineDiscountMode returns the per-line percentage configuration.
func LineDiscountMode() DiscountMode {
	return DiscountMode{kind: LineDiscount}
}

// ZoneDiscountMode returns the zone-table configuration. A nil table falls
// back to DefaultZoneTable.
func ZoneDiscountMode(table map[string]float64) DiscountMode {
	if table == nil {
		table = DefaultZoneTable
	}
	return DiscountMode{kind: ZoneDiscount, zones: table}
}

// ParseDiscountMode maps the QUOTE_DISCOUNT_MODE configuration value to a
// DiscountMode. Unknown values resolve to the zone configuration.
func ParseDiscountMode(value string) DiscountMode {
	switch value {
	case "line":
		return LineDiscountMode()
	case "none":
		return NoDiscountMode()
	default:
		return ZoneDiscountMode(nil)
	}
}

// Kind exposes the active mechanism.
func (m DiscountMode) Kind() DiscountKind { return m.kind }

// HasLineDiscount reports whether lines carry an editable discount field.
func (m DiscountMode) HasLineDiscount() bool { return m.kind == LineDiscount }

// HasSystemTag reports whether lines carry the system tag field. The tag is
// present exactly when the per-line discount is not.
func (m DiscountMode) HasSystemTag() bool { return m.kind != LineDiscount }

// ZonePercent resolves the discount percentage for a zone. Exact match only;
// anything not in the table, including the empty zone, resolves to 0.
func (m DiscountMode) ZonePercent(zone string) float64 {
	if m.kind != ZoneDiscount {
		return 0
	}
	return m.zones[zone]
}

// ZoneTable returns a copy of the zone table, nil unless the zone mechanism
// is active. The quote form ships it to the client for the totals preview.
func (m DiscountMode) ZoneTable() map[string]float64 {
	if m.kind != ZoneDiscount {
		return nil
	}
	table := make(map[string]float64, len(m.zones))
	for name, pct := range m.zones {
		table[name] = pct
	}
	return table
}

// ZoneNames lists the selectable zones in a stable order. Empty unless the
// zone mechanism is active.
func (m DiscountMode) ZoneNames() []string {
	if m.kind != ZoneDiscount {
		return nil
	}
	names := make([]string, 0, len(m.zones))
	for name := range m.zones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
