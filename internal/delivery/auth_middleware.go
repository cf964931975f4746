package delivery

import (
	"context"
	"net/http"
	"strings"

	"github.com/voxlog/voxlog/internal/ports"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// AuthMiddleware — кладёт id аутентифицированного пользователя в контекст;
// ядро дальше доверяет ему полностью и не перепроверяет.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(h, "Bearer ")
			userID, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID — id пользователя из контекста запроса (0, если нет).
func UserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
