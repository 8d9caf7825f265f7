package auth

import (
	"github.com/rs/zerolog/log"

	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/navigation"
)

// Evaluator answers authorization questions for an explicit principal. It
// performs no I/O; the hierarchy snapshot is passed in by the caller.
type Evaluator struct {
	registry *permission.Registry
}

// NewEvaluator returns an evaluator checking codes against reg.
func NewEvaluator(reg *permission.Registry) *Evaluator {
	return &Evaluator{registry: reg}
}

// Registry returns the permission registry of the evaluator.
func (e *Evaluator) Registry() *permission.Registry {
	return e.registry
}

// HasPermission reports whether p may use code. Unregistered codes are always
// denied, even for admins.
func (e *Evaluator) HasPermission(p *Principal, code permission.Code) bool {
	if p == nil || !e.registry.Known(code) {
		return false
	}

	return p.IsAdmin() || p.Holds(code)
}

// HasAnyPermission reports whether at least one of codes passes HasPermission.
func (e *Evaluator) HasAnyPermission(p *Principal, codes ...permission.Code) bool {
	for _, c := range codes {
		if e.HasPermission(p, c) {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether every code passes HasPermission. An empty
// list passes for any principal.
func (e *Evaluator) HasAllPermissions(p *Principal, codes ...permission.Code) bool {
	if p == nil {
		return false
	}

	for _, c := range codes {
		if !e.HasPermission(p, c) {
			return false
		}
	}

	return true
}

// VisibleMenuSections returns the part of menu that p may navigate to.
func (e *Evaluator) VisibleMenuSections(p *Principal, menu []navigation.MenuItem) []navigation.MenuItem {
	return navigation.Filter(menu, func(codes []permission.Code) bool {
		return e.HasAnyPermission(p, codes...)
	})
}

// HasGlobalScope reports whether p sees every organization.
func (e *Evaluator) HasGlobalScope(p *Principal) bool {
	return e.HasPermission(p, permission.OrgViewAll)
}

// CanAccessOrganizationScope reports whether target lies in the subtree of
// p's organization, or p holds the global scope override.
func (e *Evaluator) CanAccessOrganizationScope(p *Principal, target uint, forest *orgtree.Forest) bool {
	if p == nil {
		return false
	}

	if e.HasGlobalScope(p) {
		return true
	}

	if p.OrganizationID == nil || forest == nil {
		return false
	}

	return forest.InScope(*p.OrganizationID, target)
}

// ScopeIDs returns the organizations p may see. all is true for principals
// with the global scope override; ids is then nil.
func (e *Evaluator) ScopeIDs(p *Principal, forest *orgtree.Forest) (all bool, ids []uint) {
	if p == nil {
		return false, nil
	}

	if e.HasGlobalScope(p) {
		return true, nil
	}

	if p.OrganizationID == nil || forest == nil {
		return false, []uint{}
	}

	org := *p.OrganizationID
	if n, ok := forest.Node(org); !ok || n.Depth == 0 {
		// unknown or cyclic organizations grant nothing
		return false, []uint{}
	}

	descendants, err := forest.DescendantsOf(org)
	if err != nil {
		log.Error().Err(err).Uint("organization_id", org).Msg("organization scope truncated")
	}

	return false, append([]uint{org}, descendants...)
}
