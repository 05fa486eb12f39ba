package report

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
)

// QuoteRenderer turns a saved quote into the printable PDF the sales team
// attaches to mails. It satisfies the quotes handler's renderer interface.
type QuoteRenderer struct {
	client *Client
	tmpl   *template.Template
}

// NewQuoteRenderer builds the renderer. A nil client disables PDF export at
// the handler level, so callers may pass the renderer through unconditionally.
func NewQuoteRenderer(client *Client) *QuoteRenderer {
	return &QuoteRenderer{
		client: client,
		tmpl:   template.Must(template.New("quote").Funcs(quoteFuncs).Parse(quoteDocument)),
	}
}

var quoteFuncs = template.FuncMap{
	"money":   shared.FormatMoney,
	"percent": shared.FormatPercent,
}

type quoteDocData struct {
	Folio       string
	Fecha       string
	Estatus     string
	Cliente     string
	Empresa     string
	Responsable string
	Zona        string
	Notas       []string
	Lines       []quoteDocLine
	Subtotal    float64
	Descuento   float64
	IVAPorc     float64
	IVAMonto    float64
	Total       float64
	GeneratedAt string
}

type quoteDocLine struct {
	Nombre      string
	Descripcion string
	Unidad      string
	Sistema     string
	Cantidad    float64
	Precio      float64
	Subtotal    float64
}

// RenderQuote renders the quote document through Gotenberg.
func (r *QuoteRenderer) RenderQuote(ctx context.Context, q *quotes.QuoteWithClient, lines []quotes.QuoteLine) ([]byte, error) {
	html, err := r.BuildHTML(q, lines)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

// BuildHTML produces the HTML document that gets converted to PDF.
func (r *QuoteRenderer) BuildHTML(q *quotes.QuoteWithClient, lines []quotes.QuoteLine) (string, error) {
	data := quoteDocData{
		Folio:       q.Folio,
		Fecha:       q.Fecha.UTC().Format("02/01/2006"),
		Estatus:     string(q.Estatus),
		Cliente:     q.ClienteNombre,
		Empresa:     q.ClienteEmpresa,
		Zona:        q.Zone(),
		Subtotal:    q.Subtotal,
		Descuento:   q.DescuentoTotal,
		IVAPorc:     q.IVAPorc,
		IVAMonto:    q.IVAMonto,
		Total:       q.Total,
		GeneratedAt: time.Now().UTC().Format("02/01/2006 15:04"),
	}
	if q.Representante != nil {
		data.Responsable = *q.Representante
	}
	if q.Notas != nil {
		for _, line := range strings.Split(*q.Notas, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				data.Notas = append(data.Notas, trimmed)
			}
		}
	}
	for _, ln := range lines {
		doc := quoteDocLine{
			Nombre:      ln.Nombre,
			Descripcion: ln.Descripcion,
			Unidad:      ln.Unidad,
			Cantidad:    ln.Cantidad,
			Precio:      ln.Precio,
			Subtotal:    ln.Subtotal,
		}
		if ln.Sistema != nil {
			doc.Sistema = *ln.Sistema
		}
		data.Lines = append(data.Lines, doc)
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render quote %s: %w", q.Folio, err)
	}
	return sb.String(), nil
}

const quoteDocument = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Cotización {{.Folio}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1f2937; margin: 40px; font-size: 13px; }
  header { display: flex; justify-content: space-between; align-items: baseline; border-bottom: 3px solid #b45309; padding-bottom: 12px; }
  h1 { font-size: 20px; margin: 0; color: #b45309; }
  .meta { margin: 16px 0; }
  .meta td { padding: 2px 18px 2px 0; }
  table.lines { width: 100%; border-collapse: collapse; margin-top: 8px; }
  table.lines th { background: #fef3c7; text-align: left; padding: 6px 8px; border-bottom: 2px solid #b45309; }
  table.lines td { padding: 5px 8px; border-bottom: 1px solid #e5e7eb; vertical-align: top; }
  .num { text-align: right; white-space: nowrap; }
  .totals { margin-top: 14px; margin-left: auto; }
  .totals td { padding: 3px 10px; }
  .totals .grand { font-weight: bold; font-size: 15px; border-top: 2px solid #b45309; }
  .notas { margin-top: 20px; font-size: 12px; color: #4b5563; }
  footer { margin-top: 30px; font-size: 10px; color: #9ca3af; }
</style>
</head>
<body>
<header>
  <h1>Sistema Poliutech</h1>
  <div><strong>Cotización {{.Folio}}</strong></div>
</header>
<table class="meta">
  <tr><td><strong>Fecha:</strong> {{.Fecha}}</td><td><strong>Estatus:</strong> {{.Estatus}}</td></tr>
  <tr><td><strong>Cliente:</strong> {{.Cliente}}</td><td><strong>Empresa:</strong> {{.Empresa}}</td></tr>
  {{if or .Responsable .Zona}}<tr>{{if .Responsable}}<td><strong>Responsable:</strong> {{.Responsable}}</td>{{end}}{{if .Zona}}<td><strong>Zona:</strong> {{.Zona}}</td>{{end}}</tr>{{end}}
</table>
<table class="lines">
  <thead>
    <tr><th>Concepto</th><th>Sistema</th><th>Unidad</th><th class="num">Cantidad</th><th class="num">P. Unitario</th><th class="num">Importe</th></tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr>
      <td>{{.Nombre}}{{if .Descripcion}}<br><small>{{.Descripcion}}</small>{{end}}</td>
      <td>{{.Sistema}}</td>
      <td>{{.Unidad}}</td>
      <td class="num">{{.Cantidad}}</td>
      <td class="num">{{money .Precio}}</td>
      <td class="num">{{money .Subtotal}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td>Subtotal</td><td class="num">{{money .Subtotal}}</td></tr>
  {{if .Descuento}}<tr><td>Descuento</td><td class="num">-{{money .Descuento}}</td></tr>{{end}}
  <tr><td>IVA ({{percent .IVAPorc}})</td><td class="num">{{money .IVAMonto}}</td></tr>
  <tr class="grand"><td>Total</td><td class="num">{{money .Total}}</td></tr>
</table>
{{if .Notas}}
<div class="notas">
  <strong>Notas</strong>
  {{range .Notas}}<div>{{.}}</div>{{end}}
</div>
{{end}}
<footer>Generado el {{.GeneratedAt}} UTC</footer>
</body>
</html>
`
