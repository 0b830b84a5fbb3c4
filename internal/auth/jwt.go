package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid wraps every rejection reason of ParseJWT. The middleware
// answers 401 either way; the wrapped cause is for logs only.
var ErrTokenInvalid = errors.New("auth: token rejected")

// Claims is the payload of an ops API token. Every token is scoped to
// exactly one tenant; the role decides which operations its holder may
// trigger.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// opsTokenParser accepts HS256 only and insists on an expiry, so tokens
// cannot be minted without a lifetime.
var opsTokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithExpirationRequired(),
)

// ParseJWT verifies a signed ops token and returns its claims. A token whose
// signature holds is still rejected when it carries no tenant scope or a
// role outside the known set.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: no signing secret configured")
	}

	claims := &Claims{}
	if _, err := opsTokenParser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("%w: no tenant scope", ErrTokenInvalid)
	}
	if _, ok := NormalizeRole(claims.Role); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}
