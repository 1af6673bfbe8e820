package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ServiceClaims is the JWT claim set this transport expects. There is
// no user or session concept in this domain; a valid token only
// asserts that the caller is an authorized service, not who it is.
type ServiceClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"clientId"`
}

// AuthConfig holds the shared-secret bearer-token configuration.
// Leaving Secret empty disables authentication entirely, since not
// every deployment of this core sits behind a public-facing gateway.
type AuthConfig struct {
	Secret []byte
	Issuer string
}

// authMiddleware validates a bearer JWT against the configured secret.
// A misconfigured or unsigned token is rejected with 401 before the
// request reaches the orchestrator.
func authMiddleware(cfg AuthConfig, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if len(cfg.Secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"missing bearer token"}}`))
				return
			}

			claims := &ServiceClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
			if err != nil || !parsed.Valid {
				logger.Warn("bearer token rejected", zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"invalid bearer token"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// issueServiceToken mints a short-lived token for a known client; used
// by operators bootstrapping a caller, not by the request path itself.
func issueServiceToken(cfg AuthConfig, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ClientID: clientID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}
