package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"jiskefet/internal/bootstrap/logging"
)

const tokenIssuer = "jiskefet"

// Claims is the payload of the bearer tokens accepted by the API.
type Claims struct {
	UserID uint64 `json:"user_id"`
	jwtlib.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID that expires after ttl.
func GenerateToken(userID uint64, secret string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret is required")
	}
	if userID == 0 {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates token and returns its claims.
func ParseToken(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(*jwtlib.Token) (any, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}

type ctxUserIDKey struct{}

// UserIDFromContext returns the authenticated user of the request.
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	userID, ok := ctx.Value(ctxUserIDKey{}).(uint64)
	return userID, ok
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			logging.Warn(r.Context(), "authorization header invalid", slog.String("reason", err.Error()))
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
			return
		}
		claims, err := ParseToken(token, s.jwtSecret)
		if err != nil {
			logging.Warn(r.Context(), "token validation failed", slog.String("reason", err.Error()))
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication failed", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserIDKey{}, claims.UserID)
		ctx = logging.WithAttrs(ctx, slog.Uint64("user_id", claims.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
