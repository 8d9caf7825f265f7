package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

const (
	// SessionLocalsKey holds the *Principal stored in the session. It is set by
	// the session middleware and only identifies the user.
	SessionLocalsKey = "sessionPrincipal"

	// PrincipalLocalsKey holds the *Principal resolved by the gate for the
	// current request.
	PrincipalLocalsKey = "principal"
)

// ScopeFunc extracts the organization a request targets. ok is false when the
// request does not target a single organization. A returned *fiber.Error is
// sent to the client as is.
type ScopeFunc func(c *fiber.Ctx) (orgID uint, ok bool, err error)

// Option configures a gate middleware.
type Option func(*guard)

type guard struct {
	gate  *Gate
	req   Requirement
	scope ScopeFunc
}

// WithScope adds an organization scope check fed by fn.
func WithScope(fn ScopeFunc) Option {
	return func(g *guard) {
		g.scope = fn
	}
}

// Require returns middleware that lets a request through only when the gate
// allows req. It panics when req names an unregistered code.
func Require(g *Gate, req Requirement, opts ...Option) fiber.Handler {
	if err := g.Validate(req); err != nil {
		panic(err)
	}

	gd := &guard{gate: g, req: req}
	for _, opt := range opts {
		opt(gd)
	}

	return gd.handle
}

// RequirePermission requires a single code.
func RequirePermission(g *Gate, code permission.Code, opts ...Option) fiber.Handler {
	return Require(g, Requirement{AllOf: []permission.Code{code}}, opts...)
}

// RequireAnyPermission requires at least one of codes.
func RequireAnyPermission(g *Gate, codes []permission.Code, opts ...Option) fiber.Handler {
	return Require(g, Requirement{AnyOf: codes}, opts...)
}

// RequireAllPermissions requires every one of codes.
func RequireAllPermissions(g *Gate, codes []permission.Code, opts ...Option) fiber.Handler {
	return Require(g, Requirement{AllOf: codes}, opts...)
}

// RequireAuthenticated only requires an active account.
func RequireAuthenticated(g *Gate) fiber.Handler {
	return Require(g, Requirement{})
}

func (gd *guard) handle(c *fiber.Ctx) error {
	req := gd.req

	// a scope lookup failure is reported only to callers that pass the
	// permission check, so 401 and 403 keep precedence
	var scopeErr error

	if gd.scope != nil {
		id, ok, err := gd.scope(c)

		switch {
		case err != nil:
			scopeErr = err
		case ok:
			req.ScopeOrgID = &id
		}
	}

	d, err := gd.gate.Check(c.UserContext(), SessionPrincipal(c), req)
	if err != nil {
		log.Error().Err(err).Str("path", c.Path()).Msg("authorization check failed")

		return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	switch d.State {
	case StateAllowed:
		if scopeErr != nil {
			return response.Error(c, scopeErr)
		}

		c.Locals(PrincipalLocalsKey, d.Principal)

		return c.Next()
	case StateUnauthenticated:
		return response.Fail(c, fiber.StatusUnauthorized, ErrUnauthenticated.Error())
	default:
		return response.Fail(c, fiber.StatusForbidden, ErrForbidden.Error())
	}
}

// SessionPrincipal returns the principal stored in the session, nil if the
// request carries none.
func SessionPrincipal(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(SessionLocalsKey).(*Principal)

	return p
}

// PrincipalFrom returns the principal resolved by the gate, nil on routes
// without a gate.
func PrincipalFrom(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(PrincipalLocalsKey).(*Principal)

	return p
}
