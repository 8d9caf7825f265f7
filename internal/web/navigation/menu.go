package navigation

import (
	"github.com/senma231/checkprice-sub001/internal/permission"
)

// MenuItem is one node of the declarative dashboard menu. A node with an empty
// Permissions list has no requirement of its own; a non-empty list is ANY-of.
type MenuItem struct {
	Key         string            `json:"key"`
	Title       string            `json:"title"`
	Path        string            `json:"path,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Permissions []permission.Code `json:"permissions,omitempty"`
	Children    []MenuItem        `json:"children,omitempty"`
}

// Gated reports whether the item declares its own requirement.
func (m MenuItem) Gated() bool {
	return len(m.Permissions) > 0
}

// DefaultMenu returns the two-level menu of the admin dashboard.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{
			Key: "dashboard", Title: "Dashboard", Path: "/dashboard", Icon: "gauge",
			Permissions: []permission.Code{permission.DashboardView},
		},
		{
			Key: "system", Title: "System", Icon: "settings",
			Children: []MenuItem{
				{
					Key: "orgs", Title: "Organizations", Path: "/system/orgs",
					Permissions: []permission.Code{permission.OrgView, permission.OrgViewAll},
				},
				{
					Key: "users", Title: "Users", Path: "/system/users",
					Permissions: []permission.Code{permission.UserView},
				},
				{
					Key: "roles", Title: "Roles", Path: "/system/roles",
					Permissions: []permission.Code{permission.RoleView},
				},
				{
					Key: "diagnostics", Title: "Hierarchy Diagnostics", Path: "/system/diagnostics",
					Permissions: []permission.Code{permission.SystemDiagnostics},
				},
			},
		},
		{
			Key: "catalog", Title: "Service Catalog", Icon: "boxes",
			Children: []MenuItem{
				{
					Key: "service-types", Title: "Service Types", Path: "/catalog/service-types",
					Permissions: []permission.Code{permission.ServiceTypeView},
				},
				{
					Key: "services", Title: "Services", Path: "/catalog/services",
					Permissions: []permission.Code{permission.ServiceView},
				},
			},
		},
		{
			Key: "pricing", Title: "Pricing", Icon: "tag",
			Children: []MenuItem{
				{
					Key: "prices", Title: "Prices", Path: "/pricing/prices",
					Permissions: []permission.Code{permission.PriceView},
				},
				{
					Key: "price-import", Title: "New Price", Path: "/pricing/prices/new",
					Permissions: []permission.Code{permission.PriceCreate},
				},
			},
		},
		{
			Key: "reports", Title: "Reports", Path: "/reports", Icon: "chart",
			Permissions: []permission.Code{permission.ReportView},
		},
	}
}

// Filter returns a pruned deep copy of items. A node survives when it has no
// requirement of its own, when allow accepts its requirement, or when at least
// one of its children survives. A container without a requirement is dropped
// once all of its children are gone. items is not modified.
func Filter(items []MenuItem, allow func([]permission.Code) bool) []MenuItem {
	out := make([]MenuItem, 0, len(items))

	for _, item := range items {
		if kept, ok := filterItem(item, allow); ok {
			out = append(out, kept)
		}
	}

	return out
}

func filterItem(item MenuItem, allow func([]permission.Code) bool) (MenuItem, bool) {
	kept := item
	kept.Permissions = append([]permission.Code(nil), item.Permissions...)
	kept.Children = nil

	if len(item.Children) > 0 {
		kept.Children = Filter(item.Children, allow)
		if len(kept.Children) > 0 {
			return kept, true
		}

		// pure container whose children were all pruned
		if !item.Gated() {
			return MenuItem{}, false
		}
	}

	if !item.Gated() || allow(item.Permissions) {
		return kept, true
	}

	return MenuItem{}, false
}

// RequiredCodes collects every code referenced by items, in first-seen order.
func RequiredCodes(items []MenuItem) []permission.Code {
	seen := make(map[permission.Code]struct{})

	var out []permission.Code

	var walk func([]MenuItem)
	walk = func(list []MenuItem) {
		for _, item := range list {
			for _, c := range item.Permissions {
				if _, ok := seen[c]; ok {
					continue
				}

				seen[c] = struct{}{}
				out = append(out, c)
			}

			walk(item.Children)
		}
	}

	walk(items)

	return out
}

// Find returns the path of menu items leading to the item whose Path equals
// path, top level first.
func Find(items []MenuItem, path string) ([]MenuItem, bool) {
	for _, item := range items {
		if item.Path != "" && item.Path == path {
			return []MenuItem{item}, true
		}

		if trail, ok := Find(item.Children, path); ok {
			return append([]MenuItem{item}, trail...), true
		}
	}

	return nil, false
}
