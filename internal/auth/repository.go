package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poliutech/cotizador/internal/shared"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	// FindByName matches the account name case-insensitively.
	FindByName(ctx context.Context, nombre string) (*User, error)
	Create(ctx context.Context, u User) (int64, error)
	List(ctx context.Context) ([]User, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) FindByName(ctx context.Context, nombre string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		SELECT id, nombre, rol, password_hash, created_at
		FROM usuario
		WHERE LOWER(nombre) = LOWER($1)
		LIMIT 1
	`, nombre).Scan(&u.ID, &u.Nombre, &u.Rol, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO usuario (nombre, rol, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, u.Nombre, u.Rol, u.PasswordHash).Scan(&id)
	return id, err
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, "SELECT id, nombre, rol, password_hash, created_at FROM usuario ORDER BY nombre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Nombre, &u.Rol, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
