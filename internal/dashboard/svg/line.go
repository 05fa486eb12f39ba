// Package svg renders the dashboard charts as standalone SVG markup, so the
// page needs no client-side charting library.
package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Opts customises the line chart renderer.
type Opts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

const (
	defaultWidth   = 720
	defaultHeight  = 240
	defaultPadding = 28.0
	defaultTicks   = 5
)

// Line renders the monthly series as an SVG line chart. Labels run along the
// x axis and must align with the series one to one.
func Line(width, height int, series []float64, labels []string, opts Opts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = defaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = defaultTicks
	}
	stroke := fallback(opts.StrokeColor, "#b45309")
	fill := fallback(opts.FillColor, "rgba(180,83,9,0.12)")
	axis := fallback(opts.AxisColor, "#44403c")
	grid := fallback(opts.GridColor, "#e7e5e4")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	lo, hi := bounds(series)
	if lo > 0 {
		lo = 0
	}
	if almostEqual(hi, lo) {
		hi = lo + 1
	}
	scale := plotH / (hi - lo)

	step := 0.0
	if len(series) > 1 {
		step = plotW / float64(len(series)-1)
	}
	pointX := func(i int) float64 {
		if len(series) > 1 {
			return padding + float64(i)*step
		}
		return padding + plotW/2
	}
	pointY := func(v float64) float64 {
		return padding + plotH - (v-lo)*scale
	}

	var path strings.Builder
	for i, v := range series {
		x, y := pointX(i), pointY(v)
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", x, y)
		} else {
			fmt.Fprintf(&path, " L%.2f %.2f", x, y)
		}
	}

	titleID := makeID(opts.Title, "chart-title")
	descID := makeID(opts.Title, "chart-desc")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(opts.Title, "Cotizaciones por mes")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(opts.Description, "Serie mensual de cotizaciones")))

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := padding + plotH - ratio*plotH
		value := lo + (hi-lo)*ratio
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, padding, y, padding+plotW, y, grid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-6, y+4, axis, template.HTMLEscapeString(formatTick(value)))
	}

	fmt.Fprintf(&b, `<g stroke="%s">`, axis)
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, padding, padding, padding, padding+plotH)
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, padding, padding+plotH, padding+plotW, padding+plotH)
	b.WriteString("</g>")

	if fill != "" {
		base := padding + plotH
		fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`, path.String(), pointX(len(series)-1), base, pointX(0), base, fill)
	}
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), stroke)

	if opts.ShowDots {
		for i, v := range series {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, pointX(i), pointY(v), stroke)
		}
	}

	for i, label := range labels {
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, pointX(i), padding+plotH+14, axis, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	lo, hi := series[0], series[0]
	for _, v := range series[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case abs >= 100:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func makeID(seed, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, seed)
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "dashboard"
	}
	return cleaned + "-" + suffix
}
