// Package identity extracts the trusted caller identifier from inbound
// requests. There is no session or token machinery here: an upstream
// gateway authenticates the caller and forwards the identifier.
package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

// HeaderName carries the trusted caller identifier.
const HeaderName = "X-User-ID"

const actorKey = "identity_actor_id"

// Middleware stores the caller identifier for handlers. Requests
// without the header are rejected; resolution of the identifier is the
// services' job, so an unknown id surfaces as UNAUTHORIZED from the
// operation itself.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := strings.TrimSpace(c.Get(HeaderName))
		if actorID == "" {
			return apperrors.NewUnauthorized("missing " + HeaderName + " header")
		}
		c.Locals(actorKey, actorID)
		return c.Next()
	}
}

// ActorID returns the caller identifier stored by Middleware.
func ActorID(c *fiber.Ctx) string {
	if val, ok := c.Locals(actorKey).(string); ok {
		return val
	}
	return ""
}
