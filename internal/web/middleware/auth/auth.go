package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	authz "github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/web/session"
)

// SessionIDLocalsKey holds the id of a valid session.
const SessionIDLocalsKey = "sessionID"

// Middleware loads the session named by the session cookie and exposes its
// principal under auth.SessionLocalsKey. It never rejects a request; the gate
// of each protected route decides.
func Middleware(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return c.Next()
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			log.Error().Err(err).Msg("failed to read session")
		}

		return c.Next()
	}

	if sessData.Principal.UserID > 0 {
		c.Locals(authz.SessionLocalsKey, &sessData.Principal)
		c.Locals(SessionIDLocalsKey, sessionID)
	}

	return c.Next()
}

// SessionID returns the id of the valid session of the request, "" if none.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionIDLocalsKey).(string)

	return id
}
