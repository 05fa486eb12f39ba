package clients

// Client is one row of the client catalog.
type Client struct {
	ID            int64   `json:"id" db:"id"`
	Nombre        string  `json:"nombre_cliente" db:"nombre_cliente"`
	Empresa       *string `json:"empresa,omitempty" db:"empresa"`
	Representante *string `json:"responsable,omitempty" db:"representante"`
	Correo        *string `json:"correo,omitempty" db:"correo"`
	Telefono      *string `json:"telefono,omitempty" db:"telefono"`
	Direccion     *string `json:"direccion,omitempty" db:"direccion"`
	RFC           *string `json:"rfc,omitempty" db:"rfc"`
}

// Suggestion is the flat record returned by the autocomplete endpoint.
// Label combines name and company for display; the remaining fields populate
// the quote header when the candidate is selected.
type Suggestion struct {
	Label         string `json:"label"`
	Nombre        string `json:"nombre_cliente"`
	Empresa       string `json:"empresa"`
	Representante string `json:"responsable"`
	Correo        string `json:"correo"`
	Telefono      string `json:"telefono"`
	Direccion     string `json:"direccion"`
	RFC           string `json:"rfc"`
}

// Suggest converts a client into its autocomplete record.
func (c Client) Suggest() Suggestion {
	s := Suggestion{
		Label:         c.Nombre,
		Nombre:        c.Nombre,
		Empresa:       deref(c.Empresa),
		Representante: deref(c.Representante),
		Correo:        deref(c.Correo),
		Telefono:      deref(c.Telefono),
		Direccion:     deref(c.Direccion),
		RFC:           deref(c.RFC),
	}
	if s.Empresa != "" {
		s.Label = s.Nombre + " · " + s.Empresa
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
