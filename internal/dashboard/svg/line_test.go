package svg

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{3, 7, 5}, []string{"2026-01", "2026-02", "2026-03"}, Opts{
		Title:       "Cotizaciones",
		Description: "Cotizaciones por mes",
		ShowDots:    true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, "2026-02") {
		t.Fatalf("expected month labels in svg")
	}
	if !strings.Contains(output, "aria-labelledby") {
		t.Fatalf("expected accessibility attributes")
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	if _, err := Line(400, 200, []float64{1, 2}, []string{"2026-01"}, Opts{}); err == nil {
		t.Fatal("expected error for mismatched labels")
	}
	if _, err := Line(400, 200, nil, nil, Opts{}); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestLineFlatSeriesDoesNotDivideByZero(t *testing.T) {
	html, err := Line(400, 200, []float64{5, 5, 5}, []string{"a", "b", "c"}, Opts{})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if !strings.Contains(string(html), "</svg>") {
		t.Fatal("expected closed svg document")
	}
}
