package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the current user may not touch the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidStatus indicates an unknown quote status value.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an internal error to a message safe to render in a
// form. Anything that is not a known sentinel collapses to a generic line so
// internals never leak into HTML.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Registro no encontrado"
	case errors.Is(err, ErrInvalidCredentials):
		return "Usuario o contraseña incorrectos"
	case errors.Is(err, ErrForbidden):
		return "No tienes permiso para esta operación"
	case errors.Is(err, ErrInvalidStatus):
		return "Estatus de cotización inválido"
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return "La sesión expiró, recarga la página"
	default:
		return "Ocurrió un error, intenta de nuevo"
	}
}
