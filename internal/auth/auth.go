package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/wichananm65/grocery-backend/internal/apperror"
)

// LocalsKey is where the parsed *jwt.Token lives, the jwtware default.
const LocalsKey = "user"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	claimCustomerID = "customer_id"
	claimEmail      = "email"
	claimRole       = "role"
)

// IssueToken signs an HS256 token carrying the customer id and role.
func IssueToken(secret string, customerID uuid.UUID, email, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		claimCustomerID: customerID.String(),
		claimEmail:      email,
		claimRole:       role,
		"exp":           time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Protect rejects requests without a valid bearer token.
func Protect(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ContextKey: LocalsKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperror.Unauthorized("missing or invalid token")
		},
	})
}

// Identify parses a bearer token when one is present and stores it under
// LocalsKey. Anonymous requests and bad tokens pass through untouched; routes
// that need a principal use Protect instead.
func Identify(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err == nil && tok.Valid {
			c.Locals(LocalsKey, tok)
		}
		return c.Next()
	}
}

// RequireAdmin must run after Protect.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return apperror.Forbidden("admin role required")
		}
		return c.Next()
	}
}

func claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals(LocalsKey).(*jwt.Token)
	if !ok {
		return nil, false
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	return mc, ok
}

// CustomerID returns the customer_id claim of the request's token.
func CustomerID(c *fiber.Ctx) (uuid.UUID, bool) {
	mc, ok := claims(c)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := mc[claimCustomerID].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func IsAdmin(c *fiber.Ctx) bool {
	mc, ok := claims(c)
	if !ok {
		return false
	}
	role, _ := mc[claimRole].(string)
	return role == RoleAdmin
}

// Actor names the principal for audit trails: the token email, else "admin"
// or "customer", else fallback.
func Actor(c *fiber.Ctx, fallback string) string {
	mc, ok := claims(c)
	if !ok {
		return fallback
	}
	if email, _ := mc[claimEmail].(string); email != "" {
		return email
	}
	if role, _ := mc[claimRole].(string); role != "" {
		return role
	}
	return fallback
}
