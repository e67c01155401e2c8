package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"stroketraining/internal/model"
	"stroketraining/internal/service"
)

// ActorLocalKey is the key under which the authenticated actor is stored in
// Fiber's context locals.
const ActorLocalKey = "actor"

// authClaims are the claims this service reads from access tokens: the
// subject, the application role and whether the email address is verified.
type authClaims struct {
	jwt.RegisteredClaims
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Auth verifies a Bearer token signed with HS256 and stores the resulting
// actor in context locals. Unknown roles pass through as-is; the permission
// matrix treats them as deny-all.
func Auth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no subject")
		}

		c.Locals(ActorLocalKey, service.Actor{
			ID:            claims.Subject,
			Role:          model.Role(claims.Role),
			EmailVerified: claims.EmailVerified,
		})

		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Auth. The zero actor maps to the
// deny-all permission set, so a missing value fails closed downstream.
func ActorFromCtx(c *fiber.Ctx) service.Actor {
	if v := c.Locals(ActorLocalKey); v != nil {
		if a, ok := v.(service.Actor); ok {
			return a
		}
	}
	return service.Actor{}
}
