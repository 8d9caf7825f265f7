// Package permission is the closed catalog of permission codes. Codes are grouped by
// module and validated at startup against everything that declares a requirement
// (routes, menu entries, role assignments).
package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a permission code in module:action form, e.g. "price:view".
type Code string

// String implements fmt.Stringer.
func (c Code) String() string {
	return string(c)
}

// Module returns the module part of the code ("price" for "price:view").
func (c Code) Module() string {
	module, _, _ := strings.Cut(string(c), ":")
	return module
}

// AdminRole is the name of the universal override role. Holding it satisfies every
// permission check. It is a role name, never a permission code.
const AdminRole = "admin"

// Module names used to group the permission catalog.
const (
	ModuleDashboard   = "dashboard"
	ModuleOrg         = "org"
	ModuleUser        = "user"
	ModuleRole        = "role"
	ModuleServiceType = "service-type"
	ModuleService     = "service"
	ModulePrice       = "price"
	ModuleReport      = "report"
	ModuleSystem      = "system"
)

// Permission codes. Every code used by routes and menus must be listed in DefaultEntries.
const (
	// DashboardView allows viewing the dashboard.
	DashboardView Code = "dashboard:view"

	// OrgView allows viewing organizations within the principal's subtree.
	OrgView Code = "org:view"
	// OrgViewAll lifts the subtree restriction for organization scoped data.
	OrgViewAll Code = "org:view-all"
	// OrgCreate allows creating organizations.
	OrgCreate Code = "org:create"
	// OrgEdit allows editing and moving organizations.
	OrgEdit Code = "org:edit"
	// OrgDelete allows deleting organizations.
	OrgDelete Code = "org:delete"

	UserView   Code = "user:view"
	UserCreate Code = "user:create"
	UserEdit   Code = "user:edit"
	UserDelete Code = "user:delete"

	RoleView   Code = "role:view"
	RoleCreate Code = "role:create"
	RoleEdit   Code = "role:edit"
	RoleDelete Code = "role:delete"

	ServiceTypeView   Code = "service-type:view"
	ServiceTypeCreate Code = "service-type:create"
	ServiceTypeEdit   Code = "service-type:edit"
	ServiceTypeDelete Code = "service-type:delete"

	ServiceView   Code = "service:view"
	ServiceCreate Code = "service:create"
	ServiceEdit   Code = "service:edit"
	ServiceDelete Code = "service:delete"

	PriceView   Code = "price:view"
	PriceCreate Code = "price:create"
	PriceEdit   Code = "price:edit"
	PriceDelete Code = "price:delete"

	// ReportView allows viewing reports built on price data.
	ReportView Code = "report:view"

	// SystemDiagnostics allows reading data-quality diagnostics such as hierarchy problems.
	SystemDiagnostics Code = "system:diagnostics"
)

var (
	// ErrUnknownPermission is returned by Registry.Validate for codes missing from the catalog.
	ErrUnknownPermission = errors.New("unknown permission code")

	// ErrReservedCode is returned when a catalog entry collides with the admin override role.
	ErrReservedCode = errors.New("permission code collides with reserved name")

	// ErrDuplicateCode is returned when a catalog lists the same code twice.
	ErrDuplicateCode = errors.New("duplicate permission code")
)

// Entry describes one grantable capability.
type Entry struct {
	Code        Code   `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Module      string `json:"module"`
}

// DefaultEntries is the built-in permission catalog.
var DefaultEntries = []Entry{ //nolint:gochecknoglobals
	{DashboardView, "View dashboard", "View the dashboard and summary widgets", ModuleDashboard},

	{OrgView, "View organizations", "List and view organizations in own subtree", ModuleOrg},
	{OrgViewAll, "View all organizations", "Access organization scoped data outside own subtree", ModuleOrg},
	{OrgCreate, "Create organizations", "Create organizations", ModuleOrg},
	{OrgEdit, "Edit organizations", "Edit and move organizations", ModuleOrg},
	{OrgDelete, "Delete organizations", "Delete organizations without children", ModuleOrg},

	{UserView, "View users", "List and view user accounts", ModuleUser},
	{UserCreate, "Create users", "Create user accounts", ModuleUser},
	{UserEdit, "Edit users", "Edit user accounts and role assignments", ModuleUser},
	{UserDelete, "Delete users", "Delete user accounts", ModuleUser},

	{RoleView, "View roles", "List roles and the permission catalog", ModuleRole},
	{RoleCreate, "Create roles", "Create roles", ModuleRole},
	{RoleEdit, "Edit roles", "Edit roles and their permissions", ModuleRole},
	{RoleDelete, "Delete roles", "Delete non-system roles", ModuleRole},

	{ServiceTypeView, "View service types", "List and view service types", ModuleServiceType},
	{ServiceTypeCreate, "Create service types", "Create service types", ModuleServiceType},
	{ServiceTypeEdit, "Edit service types", "Edit service types", ModuleServiceType},
	{ServiceTypeDelete, "Delete service types", "Delete service types", ModuleServiceType},

	{ServiceView, "View services", "List and view services", ModuleService},
	{ServiceCreate, "Create services", "Create services", ModuleService},
	{ServiceEdit, "Edit services", "Edit services", ModuleService},
	{ServiceDelete, "Delete services", "Delete services", ModuleService},

	{PriceView, "View prices", "List and view prices", ModulePrice},
	{PriceCreate, "Create prices", "Create prices", ModulePrice},
	{PriceEdit, "Edit prices", "Edit prices", ModulePrice},
	{PriceDelete, "Delete prices", "Delete prices", ModulePrice},

	{ReportView, "View reports", "View price reports", ModuleReport},

	{SystemDiagnostics, "View diagnostics", "View data-quality diagnostics", ModuleSystem},
}

// Registry is an immutable catalog of permission entries.
type Registry struct {
	entries []Entry
	byCode  map[Code]int
	modules []string
}

// NewRegistry builds a registry. Entries keep their given order.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[Code]int, len(entries)),
	}

	seenModules := make(map[string]struct{})

	for _, e := range entries {
		if strings.EqualFold(string(e.Code), AdminRole) {
			return nil, fmt.Errorf("%w: %q", ErrReservedCode, e.Code)
		}

		if _, exists := r.byCode[e.Code]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCode, e.Code)
		}

		if e.Module == "" {
			e.Module = e.Code.Module()
		}

		r.byCode[e.Code] = len(r.entries)
		r.entries = append(r.entries, e)

		if _, ok := seenModules[e.Module]; !ok {
			seenModules[e.Module] = struct{}{}
			r.modules = append(r.modules, e.Module)
		}
	}

	return r, nil
}

// MustDefaultRegistry returns the registry for DefaultEntries and panics if the
// built-in catalog is malformed.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultEntries)
	if err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the entry for code. Unknown codes report false.
func (r *Registry) Lookup(code Code) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}

	i, ok := r.byCode[code]
	if !ok {
		return Entry{}, false
	}

	return r.entries[i], true
}

// Known reports whether code is registered.
func (r *Registry) Known(code Code) bool {
	_, ok := r.Lookup(code)
	return ok
}

// Entries returns the catalog, optionally restricted to the given modules.
func (r *Registry) Entries(modules ...string) []Entry {
	if len(modules) == 0 {
		out := make([]Entry, len(r.entries))
		copy(out, r.entries)

		return out
	}

	want := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		want[m] = struct{}{}
	}

	out := make([]Entry, 0)

	for _, e := range r.entries {
		if _, ok := want[e.Module]; ok {
			out = append(out, e)
		}
	}

	return out
}

// Modules returns module names in first-seen order.
func (r *Registry) Modules() []string {
	out := make([]string, len(r.modules))
	copy(out, r.modules)

	return out
}

// Validate reports every code that is not part of the catalog.
func (r *Registry) Validate(codes ...Code) error {
	var unknown []string

	for _, c := range codes {
		if !r.Known(c) {
			unknown = append(unknown, string(c))
		}
	}

	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(unknown, ", "))
	}

	return nil
}

// ParseCodes converts raw strings to codes, dropping entries unknown to the registry.
func (r *Registry) ParseCodes(raw []string) []Code {
	out := make([]Code, 0, len(raw))

	for _, s := range raw {
		c := Code(strings.TrimSpace(s))
		if r.Known(c) {
			out = append(out, c)
		}
	}

	return out
}
