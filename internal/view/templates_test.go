package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title:     "Iniciar sesión",
		CSRFToken: "tok",
	})
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "Iniciar sesión")
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)
}

func TestEngineFuncMapFormatters(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	row := struct {
		ID             int64
		Folio          string
		ClienteNombre  string
		ClienteEmpresa string
		Fecha          time.Time
		Estatus        string
		Total          float64
	}{
		ID:            7,
		Folio:         "PTCH-0007",
		ClienteNombre: "ACME",
		Fecha:         time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Estatus:       "PENDIENTE",
		Total:         177.48,
	}

	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, "pages/cotizaciones_list.html", TemplateData{
		Title: "Cotizaciones",
		Data:  map[string]any{"Items": []any{row}},
	}))
	assert.Contains(t, rec.Body.String(), "$177.48")
	assert.Contains(t, rec.Body.String(), "10/03/2025 09:30")
}

func TestNilEngineRenderFails(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/login.html", TemplateData{}))
}
