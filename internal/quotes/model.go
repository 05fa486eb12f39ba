package quotes

import (
	"strings"
	"time"
)

// Status of a quote through its lifecycle.
type Status string

const (
	StatusPendiente Status = "PENDIENTE"
	StatusEnviada   Status = "ENVIADA"
	StatusGanada    Status = "GANADA"
	StatusPerdida   Status = "PERDIDA"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusPendiente, StatusEnviada, StatusGanada, StatusPerdida}

// ValidStatus reports whether s names a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendiente, StatusEnviada, StatusGanada, StatusPerdida:
		return true
	}
	return false
}

// Quote is a persisted quotation with its computed totals frozen at save
// time.
type Quote struct {
	ID             int64      `json:"id"`
	Folio          string     `json:"folio"`
	ClienteID      *int64     `json:"cliente_id"`
	Fecha          time.Time  `json:"fecha"`
	Estatus        Status     `json:"estatus"`
	Subtotal       float64    `json:"subtotal"`
	DescuentoTotal float64    `json:"descuento_total"`
	IVAPorc        float64    `json:"iva_porc"`
	IVAMonto       float64    `json:"iva_monto"`
	Total          float64    `json:"total"`
	Notas          *string    `json:"notas"`
	LastWhatsAppAt *time.Time `json:"last_whatsapp_at"`
	Representante  *string    `json:"responsable"`
}

// QuoteLine is a persisted line item. The line subtotal is stored as
// computed at save time so exports never re-derive it.
type QuoteLine struct {
	ID          int64   `json:"id"`
	QuoteID     int64   `json:"cotizacion_id"`
	ConceptoID  *int64  `json:"concepto_id"`
	Nombre      string  `json:"nombre_concepto"`
	Unidad      string  `json:"unidad"`
	Cantidad    float64 `json:"cantidad"`
	Precio      float64 `json:"precio_unitario"`
	Descuento   float64 `json:"descuento_pct"`
	Sistema     *string `json:"sistema"`
	Descripcion string  `json:"descripcion"`
	Subtotal    float64 `json:"subtotal"`
}

// QuoteWithClient joins a quote to the client columns list pages need.
type QuoteWithClient struct {
	Quote
	ClienteNombre  string `json:"cliente"`
	ClienteEmpresa string `json:"empresa"`
}

// Zone extracts the zone name from the traceability line a quote carries in
// its notes, e.g. "Zona: Zona Sur (15% descuento)" yields "Zona Sur".
func (q *Quote) Zone() string {
	if q.Notas == nil {
		return ""
	}
	for _, line := range strings.Split(*q.Notas, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(trimmed), "zona:") {
			continue
		}
		rest := strings.TrimSpace(trimmed[len("zona:"):])
		if i := strings.IndexByte(rest, '('); i >= 0 {
			rest = strings.TrimSpace(rest[:i])
		}
		return rest
	}
	return ""
}
