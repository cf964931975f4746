package domain

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/voxlog/voxlog/internal/ports"
)

const tokenTTL = 24 * time.Hour

var errInvalidCredentials = errors.New("invalid email or password")

type authService struct {
	repo   ports.UserRepo
	secret string
}

func NewAuthService(repo ports.UserRepo, secret string) ports.AuthService {
	return &authService{
		repo:   repo,
		secret: secret,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 6 {
		return 0, ports.Fail(ports.InputRejected, "name, email and password (min 6 chars) are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, name, email, string(hash))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", errInvalidCredentials
	}

	return s.sign(u.ID, time.Now().Add(tokenTTL)), nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, errors.New("malformed token")
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, errors.New("malformed token")
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, errors.New("malformed token")
	}
	if time.Now().Unix() > exp {
		return 0, errors.New("token expired")
	}

	expected := s.hmacHex(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return 0, errors.New("invalid token signature")
	}
	return userID, nil
}

// Токен: "<user_id>.<expiry_unix>.<hmac>".
func (s *authService) sign(userID int64, expiry time.Time) string {
	payload := strconv.FormatInt(userID, 10) + "." + strconv.FormatInt(expiry.Unix(), 10)
	return payload + "." + s.hmacHex(payload)
}

func (s *authService) hmacHex(msg string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}
