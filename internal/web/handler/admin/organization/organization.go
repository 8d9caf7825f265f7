// Package organization provides the organization hierarchy endpoints.
package organization

import (
	"errors"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	orgctl "github.com/senma231/checkprice-sub001/internal/db/controller/organization"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the base path for organization management.
const Path = handler.APIPath + "/orgs"

// Input is the create and update request body.
type Input struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	ParentID    *uint            `json:"parentId"`
	Status      models.OrgStatus `json:"status"      validate:"omitempty,oneof=enabled disabled"`
	Description string           `json:"description" validate:"max=255"`
}

// Relatives lists ancestors or descendants of an organization. Malformed is
// set when the walk ran into a cycle and the list is partial.
type Relatives struct {
	Organizations []models.Organization `json:"organizations"`
	Malformed     bool                  `json:"malformed"`
}

var knownErrors = []handler.ErrorStatus{ //nolint:gochecknoglobals
	{Err: orgctl.ErrOrganizationNotFound, Status: fiber.StatusNotFound},
	{Err: orgctl.ErrNameEmpty, Status: fiber.StatusBadRequest},
	{Err: orgctl.ErrParentNotFound, Status: fiber.StatusBadRequest},
	{Err: orgctl.ErrParentCycle, Status: fiber.StatusBadRequest},
	{Err: orgctl.ErrOrganizationHasChildren, Status: fiber.StatusConflict},
	{Err: orgctl.ErrOrganizationInUse, Status: fiber.StatusConflict},
}

// Service provides CRUD operations for organizations.
type Service struct {
	handler.Service
	db   *gorm.DB
	gate *auth.Gate
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *auth.Gate) {
	if app == nil || cfg == nil || db == nil || gate == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.gate = gate

	view := []permission.Code{permission.OrgView, permission.OrgViewAll}
	byID := auth.WithScope(handler.ScopeParam("id"))

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequireAnyPermission(gate, view), s.List)
		router.Get("/tree", auth.RequireAnyPermission(gate, view), s.Tree)
		router.Get("/:id", auth.RequireAnyPermission(gate, view, byID), s.Get)
		router.Get("/:id/ancestors", auth.RequireAnyPermission(gate, view, byID), s.Ancestors)
		router.Get("/:id/descendants", auth.RequireAnyPermission(gate, view, byID), s.Descendants)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.OrgCreate), s.Create)
		router.Put("/:id", auth.RequirePermission(gate, permission.OrgEdit, byID), s.Update)
		router.Delete("/:id", auth.RequirePermission(gate, permission.OrgDelete, byID), s.Delete)
	})
}

// List returns the organizations in the principal's scope as a flat list.
func (s *Service) List(c *fiber.Ctx) error {
	all, ids, err := handler.Scope(c, s.gate)
	if err != nil {
		return handler.Respond(c, err)
	}

	orgs, err := orgctl.List(s.db)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if !all {
		orgs = slices.DeleteFunc(orgs, func(o models.Organization) bool {
			return !slices.Contains(ids, o.ID)
		})
	}

	return response.OK(c, orgs)
}

// Tree returns the organizations in the principal's scope as a nested tree.
func (s *Service) Tree(c *fiber.Ctx) error {
	forest, err := s.gate.Forest(c.UserContext())
	if err != nil {
		return handler.Respond(c, err)
	}

	p := auth.PrincipalFrom(c)

	if s.gate.Evaluator().HasGlobalScope(p) {
		return response.OK(c, forest.Tree())
	}

	out := make([]orgtree.TreeNode, 0, 1)

	if p.OrganizationID != nil {
		if sub, ok := forest.Subtree(*p.OrganizationID); ok {
			out = append(out, sub)
		}
	}

	return response.OK(c, out)
}

// Get returns one organization.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	org, err := orgctl.Get(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, org)
}

// Ancestors returns the ancestor chain of an organization, nearest parent
// first, limited to the principal's scope.
func (s *Service) Ancestors(c *fiber.Ctx) error {
	return s.relatives(c, (*orgtree.Forest).AncestorsOf)
}

// Descendants returns every descendant of an organization breadth-first.
func (s *Service) Descendants(c *fiber.Ctx) error {
	return s.relatives(c, (*orgtree.Forest).DescendantsOf)
}

func (s *Service) relatives(c *fiber.Ctx, walk func(*orgtree.Forest, uint) ([]uint, error)) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	forest, err := s.gate.Forest(c.UserContext())
	if err != nil {
		return handler.Respond(c, err)
	}

	ids, err := walk(forest, id)

	out := Relatives{Organizations: make([]models.Organization, 0, len(ids))}

	switch {
	case errors.Is(err, orgtree.ErrUnknownOrganization):
		return handler.Respond(c, orgctl.ErrOrganizationNotFound, knownErrors...)
	case errors.Is(err, orgtree.ErrCyclicHierarchy):
		log.Warn().Err(err).Uint("organization_id", id).Msg("organization hierarchy is malformed")

		out.Malformed = true
	case err != nil:
		return handler.Respond(c, err)
	}

	visible := make([]uint, 0, len(ids))

	for _, rel := range ids {
		ok, errScope := handler.InScope(c, s.gate, forest, rel)
		if errScope != nil {
			return handler.Respond(c, errScope)
		}

		if ok {
			visible = append(visible, rel)
		}
	}

	if len(visible) == 0 {
		return response.OK(c, out)
	}

	var orgs []models.Organization
	if err = s.db.Where("id IN ?", visible).Find(&orgs).Error; err != nil {
		return handler.Respond(c, err)
	}

	byID := make(map[uint]models.Organization, len(orgs))
	for _, o := range orgs {
		byID[o.ID] = o
	}

	for _, rel := range visible {
		if o, ok := byID[rel]; ok {
			out.Organizations = append(out.Organizations, o)
		}
	}

	return response.OK(c, out)
}

// Create creates an organization. Principals without the global scope may
// only create organizations below one in their scope.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(Input)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	if err := s.checkParentScope(c, in.ParentID); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	org := &models.Organization{
		Name:        in.Name,
		ParentID:    in.ParentID,
		Status:      in.Status,
		Description: in.Description,
	}

	if err := orgctl.Create(s.db, org); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("organization_id", org.ID).Str("name", org.Name).Msg("organization created")

	return response.Created(c, org)
}

// Update edits or moves an organization.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(Input)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	current, err := orgctl.Get(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if !sameParent(current.ParentID, in.ParentID) {
		if err = s.checkParentScope(c, in.ParentID); err != nil {
			return handler.Respond(c, err, knownErrors...)
		}
	}

	org, err := orgctl.Update(s.db, id, models.Organization{
		Name:        in.Name,
		ParentID:    in.ParentID,
		Status:      in.Status,
		Description: in.Description,
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, org)
}

// Delete removes an organization without children, users or prices.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	if err = orgctl.Delete(s.db, id); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("organization_id", id).Msg("organization deleted")

	return response.OK(c, nil)
}

// checkParentScope refuses parents outside the principal's scope. Only the
// global scope may create or move roots.
func (s *Service) checkParentScope(c *fiber.Ctx, parent *uint) error {
	p := auth.PrincipalFrom(c)

	if parent == nil {
		if s.gate.Evaluator().HasGlobalScope(p) {
			return nil
		}

		return handler.ErrForbidden
	}

	ok, err := handler.InScope(c, s.gate, nil, *parent)
	if err != nil {
		return err
	}

	if !ok {
		return handler.ErrForbidden
	}

	return nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
