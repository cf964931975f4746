package infra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/voxlog/voxlog/internal/ports"
)

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) ports.UserRepo {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, email, passwordHash, time.Now()).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ports.Fail(ports.InputRejected, "email already registered")
	}
	return id, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	var u ports.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	return u, err
}
