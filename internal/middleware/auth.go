package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"carpool/internal/domain"
)

const callerKey = "carpool.caller"

// Claims are the JWT claims a caller token carries. Subject is the rider or
// driver ID.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

var errBadToken = errors.New("invalid or missing bearer token")

// IssueToken signs a token for the given caller.
func IssueToken(secret []byte, caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its caller.
func ParseToken(secret []byte, raw string) (domain.Caller, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return secret, nil
	})
	if err != nil {
		return domain.Caller{}, err
	}
	if claims.Subject == "" || (claims.Role != domain.RoleRider && claims.Role != domain.RoleDriver) {
		return domain.Caller{}, errBadToken
	}
	return domain.Caller{ID: claims.Subject, Role: claims.Role}, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller on the context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken.Error()})
			return
		}

		caller, err := ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken.Error()})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by AuthMiddleware.
func CallerFrom(c *gin.Context) domain.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Caller{}
}
