package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type contextKey string

const (
	ContextKeySubject = contextKey("subject")
	ContextKeyRole    = contextKey("role")
)

// ServiceRoleAuth guards admin endpoints. The caller presents an HS256 bearer
// token signed with the shared service-role secret whose "role" claim is
// service_role. With no secret configured every request gets a 503.
func ServiceRoleAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				utils.RespondErrorWithCode(
					w, http.StatusServiceUnavailable, utils.ErrCodeNotConfigured,
					"Admin access is not configured", nil,
				)
				return
			}

			tokenStr, err := extractBearerToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			tok, vErr := ValidateServiceToken(tokenStr, key)
			if vErr != nil || !tok.Valid {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, vErr,
				)
				return
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid claims", nil,
				)
				return
			}

			role, ok := claims["role"].(string)
			if !ok || role != constants.ServiceRoleClaim {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeUnauthorized, "Insufficient permissions", nil,
				)
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				sub = role
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, sub)
			ctx = context.WithValue(ctx, ContextKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateServiceToken parses tokenStr and verifies it was signed with key
// using HMAC.
func ValidateServiceToken(tokenStr string, key []byte) (*jwt.Token, error) {
	return jwt.Parse(
		tokenStr,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
}

// SubjectFromContext returns the authenticated caller, or "" outside ServiceRoleAuth.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(ContextKeySubject).(string)
	return sub
}

func extractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	if tok == "" {
		return "", errors.New("missing bearer token")
	}
	return tok, nil
}
