package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/poliutech/cotizador/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates name/password credentials. The name match is
// case-insensitive; any failure collapses into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, nombre, password string) (*User, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" || password == "" {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.repo.FindByName(ctx, nombre)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser registers an account with a bcrypt-hashed password. Duplicate
// names are rejected.
func (s *Service) CreateUser(ctx context.Context, nombre, password, rol string) (*User, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" || password == "" {
		return nil, fmt.Errorf("auth: nombre and password required")
	}
	rol = strings.ToLower(strings.TrimSpace(rol))
	if rol != "admin" {
		rol = "user"
	}

	if _, err := s.repo.FindByName(ctx, nombre); err == nil {
		return nil, fmt.Errorf("auth: user %q already exists", nombre)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := User{Nombre: nombre, Rol: rol, PasswordHash: string(hash)}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// ListUsers returns every account, for the admin screen.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
