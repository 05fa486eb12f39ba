package auth

import (
	"strings"
	"time"
	"unicode"
)

// User is one account of the quoting system. Rol is either "admin" or
// "user"; everything that is not admin is scoped by representante.
type User struct {
	ID           int64
	Nombre       string
	Rol          string
	PasswordHash string
	CreatedAt    time.Time
}

// IsAdmin reports whether the account has the administrator role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Rol, "admin")
}

// Representante derives the ownership scope from the account name: the first
// word, title-cased, so "rafa torres" and "Rafa" both scope to "Rafa".
func (u User) Representante() string {
	nombre := strings.TrimSpace(u.Nombre)
	if nombre == "" {
		return ""
	}
	first := []rune(strings.ToLower(strings.Fields(nombre)[0]))
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
