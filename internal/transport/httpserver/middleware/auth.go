package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"susu-app-go/internal/auth"
	"susu-app-go/pkg/logger"
)

type contextKey int

const userKey contextKey = 0

type User struct {
	ID      string
	Email   string
	IsStaff bool
}

type TokenValidator interface {
	Validate(token string, expected auth.TokenType) (*auth.Claims, error)
}

// JWTAuth authenticates requests carrying a bearer access token.
type JWTAuth struct {
	tokens TokenValidator
	log    logger.Logger
}

func NewJWTAuth(tokens TokenValidator, log logger.Logger) *JWTAuth {
	return &JWTAuth{tokens: tokens, log: log}
}

func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_token", auth.ErrMissingToken.Error())
			return
		}

		claims, err := a.tokens.Validate(token, auth.TokenAccess)
		if err != nil {
			a.log.Debug("auth: token rejected", "err", err, "path", r.URL.Path)
			unauthorized(w)
			return
		}

		user := User{ID: claims.UserID, Email: claims.Email, IsStaff: claims.IsStaff}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireStaff must run after Middleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !user.IsStaff {
			writeError(w, http.StatusForbidden, "forbidden", "staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
