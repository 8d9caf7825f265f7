// Package navigation describes the dashboard menu and derives the navigation
// context (active section, breadcrumbs) of a page from it.
package navigation

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string           `json:"activeSection"`
	ActivePage    string           `json:"activePage"`
	Breadcrumbs   []BreadcrumbItem `json:"breadcrumbs"`
	PageTitle     string           `json:"pageTitle"`
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// ContextFor locates path in the menu and builds the matching context. The
// first element of the trail is the section, the last one the page. A path
// that is not in the menu yields a context with only the home breadcrumb.
func ContextFor(menu []MenuItem, path string) *Context {
	trail, ok := Find(menu, path)
	if !ok {
		return NewContext("", "", "").AddBreadcrumb("Home", "/", true)
	}

	last := trail[len(trail)-1]
	ctx := NewContext(last.Title, trail[0].Key, last.Key).AddBreadcrumb("Home", "/", false)

	for i, item := range trail {
		ctx.AddBreadcrumb(item.Title, item.Path, i == len(trail)-1)
	}

	return ctx
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
