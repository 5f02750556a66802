package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/utils"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// UserID returns the token subject set by AuthMiddleware, or ""
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// AuthMiddleware requires an HS256 bearer token signed with secret
func AuthMiddleware(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				utils.RespondError(w, log, "missing bearer token", http.StatusUnauthorized)
				return
			}

			subject, err := utils.ValidateToken(secret, token)
			if err != nil {
				utils.RespondError(w, log, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
