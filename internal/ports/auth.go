package ports

import (
	"context"
	"time"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UserRepo interface {
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (int64, error)
	// Login — возвращает bearer-токен.
	Login(ctx context.Context, email, password string) (string, error)
	// ValidateToken — возвращает id пользователя из токена.
	ValidateToken(ctx context.Context, token string) (int64, error)
}
