package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/domain"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// RequireRole lets the request through only when the principal holds one of the allowed roles.
// It must be mounted after AuthMiddleware.Handle. Unknown roles panic at wiring time.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	if len(allowed) == 0 {
		panic("auth: RequireRole needs at least one role")
	}
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		if !role.Valid() {
			panic(fmt.Sprintf("auth: unknown role %q", role))
		}
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Not authorized, no token.")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("Forbidden: You do not have the required permissions.")
		}
		return c.Next()
	}
}

// RequireAdmin is RequireRole(domain.RoleAdmin).
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
