package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Roles carried in the token.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const principalKey = "principal"

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims are issued by the login service.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Middleware verifies HS256 bearer tokens.
type Middleware struct {
	secret []byte
}

// NewMiddleware creates a Middleware for the shared secret.
func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

// Parse validates a raw token and returns its principal.
func (m *Middleware) Parse(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return Principal{}, fmt.Errorf("%w: userId claim missing", ErrInvalidToken)
	}

	role := claims.Role
	if role != RoleAdmin {
		role = RoleCustomer
	}
	return Principal{UserID: claims.UserID, Role: role}, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers without a token with 401 and non-admin callers with 403.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		if p, _ := FromContext(c); !p.IsAdmin() {
			return server.Error(c, fiber.StatusForbidden, "admin role required", nil)
		}
		return c.Next()
	}
}

// authenticate stores the principal. When it reports false the 401 has already been written.
func (m *Middleware) authenticate(c *fiber.Ctx) (bool, error) {
	if _, ok := FromContext(c); ok {
		return true, nil
	}

	raw, ok := bearer(c)
	if !ok {
		return false, server.Error(c, fiber.StatusUnauthorized, "missing token", nil)
	}

	p, err := m.Parse(raw)
	if err != nil {
		logger.Get().Debug("Token rejected", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return false, server.Error(c, fiber.StatusUnauthorized, "unauthorized", nil)
	}

	c.Locals(principalKey, p)
	return true, nil
}

// OptionalAuth attaches a principal when a valid token is present and lets the request through otherwise.
// Browsers cannot set headers on an EventSource, so the token may also come in the access_token query parameter.
func (m *Middleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearer(c)
		if !ok {
			raw = strings.TrimSpace(c.Query("access_token"))
		}
		if raw == "" {
			return c.Next()
		}
		if p, err := m.Parse(raw); err == nil {
			c.Locals(principalKey, p)
		}
		return c.Next()
	}
}

// FromContext returns the principal set by one of the middlewares.
func FromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// Sign issues a token. Production tokens come from the login service; this is used by tests and tooling.
func Sign(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearer(c *fiber.Ctx) (string, bool) {
	raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
