package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// TokenIssuer is the iss claim on every admin token.
const TokenIssuer = "dental-premium"

// RoleAdmin is the only role allowed through AdminJWT.
const RoleAdmin = "admin"

// AdminClaims are carried by admin session tokens. Subject is the admin email.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAdminToken validates an HS256 admin token signed with secret.
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Role != RoleAdmin {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AdminJWT enforces an HMAC-signed admin JWT for admin endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, "admin auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, "missing authorization header")
				return
			}
			claims, err := ParseAdminToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeAuthError(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, *claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}

// WithAdminClaims stores claims on ctx; used by tests of downstream handlers.
func WithAdminClaims(ctx context.Context, claims AdminClaims) context.Context {
	return context.WithValue(ctx, adminClaimsKey, claims)
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
