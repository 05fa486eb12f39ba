package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// Session value keys used across handlers.
const (
	SessionKeyRole          = "role"
	SessionKeyRepresentante = "representante"
)

// IsAdmin reports whether the session belongs to an administrator.
func IsAdmin(sess *Session) bool {
	return sess != nil && sess.Get(SessionKeyRole) == "admin"
}

// Representante returns the sales representative name bound to the session.
// Admin sessions return an empty string, meaning no ownership scoping.
func Representante(sess *Session) string {
	if sess == nil || IsAdmin(sess) {
		return ""
	}
	return sess.Get(SessionKeyRepresentante)
}
