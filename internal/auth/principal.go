package auth

import (
	"slices"

	"github.com/senma231/checkprice-sub001/internal/permission"
)

// Principal is the authenticated actor of a request. Permissions is the union
// of the codes of all enabled roles at the time the principal was resolved;
// it is a snapshot and never the source of truth.
type Principal struct {
	UserID         uint64            `json:"userId"`
	Username       string            `json:"username"`
	OrganizationID *uint             `json:"organizationId,omitempty"`
	Roles          []string          `json:"roles"`
	Permissions    []permission.Code `json:"permissions"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && slices.Contains(p.Roles, permission.AdminRole)
}

// Holds reports whether code is in the principal's permission set. It does
// not consider the admin role; use Evaluator.HasPermission for decisions.
func (p *Principal) Holds(code permission.Code) bool {
	return p != nil && slices.Contains(p.Permissions, code)
}
