package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
)

// Scope returns the organizations visible to the principal resolved by the
// gate for this request. all is true for the global scope override.
func Scope(c *fiber.Ctx, gate *auth.Gate) (all bool, ids []uint, err error) {
	p := auth.PrincipalFrom(c)
	e := gate.Evaluator()

	if e.HasGlobalScope(p) {
		return true, nil, nil
	}

	forest, err := gate.Forest(c.UserContext())
	if err != nil {
		return false, nil, err
	}

	all, ids = e.ScopeIDs(p, forest)

	return all, ids, nil
}

// InScope reports whether org is visible to the principal of the request,
// using forest when it is already loaded.
func InScope(c *fiber.Ctx, gate *auth.Gate, forest *orgtree.Forest, org uint) (bool, error) {
	p := auth.PrincipalFrom(c)
	e := gate.Evaluator()

	if e.HasGlobalScope(p) {
		return true, nil
	}

	if forest == nil {
		var err error
		if forest, err = gate.Forest(c.UserContext()); err != nil {
			return false, err
		}
	}

	return e.CanAccessOrganizationScope(p, org, forest), nil
}

// ErrForbidden is the uniform 403 for denials decided inside a handler, such
// as a target organization read from the request body.
var ErrForbidden = fiber.NewError(fiber.StatusForbidden, auth.ErrForbidden.Error()) //nolint:gochecknoglobals

// ScopeParam returns a scope function reading the organization id from the
// route parameter name.
func ScopeParam(name string) auth.ScopeFunc {
	return func(c *fiber.Ctx) (uint, bool, error) {
		id, err := ParamID(c, name)
		if err != nil {
			return 0, false, err
		}

		return id, true, nil
	}
}

// ScopeQuery returns a scope function reading the optional organization id
// from the query parameter name.
func ScopeQuery(name string) auth.ScopeFunc {
	return func(c *fiber.Ctx) (uint, bool, error) {
		return QueryID(c, name)
	}
}
