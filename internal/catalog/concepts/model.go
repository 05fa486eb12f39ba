// Package concepts manages the shared concept catalog that feeds quote line
// items. Unlike clients, concepts are global: every representante draws from
// the same price list.
package concepts

// Concept is a reusable line-item definition.
type Concept struct {
	ID          int64   `json:"id"`
	Nombre      string  `json:"nombre_concepto"`
	Unidad      *string `json:"unidad"`
	Precio      float64 `json:"precio_unitario"`
	Descripcion *string `json:"descripcion"`
}

// Suggestion is the payload the quote form's type-ahead consumes. Selecting
// one fills the concept, unit, price and description cells of a row at once.
type Suggestion struct {
	Label       string  `json:"label"`
	Nombre      string  `json:"nombre_concepto"`
	Unidad      string  `json:"unidad"`
	Precio      float64 `json:"precio_unitario"`
	Descripcion string  `json:"descripcion"`
}

func (c Concept) Suggest() Suggestion {
	return Suggestion{
		Label:       c.Nombre,
		Nombre:      c.Nombre,
		Unidad:      deref(c.Unidad),
		Precio:      c.Precio,
		Descripcion: deref(c.Descripcion),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
