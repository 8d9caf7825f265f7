// Package role provides the role management endpoints.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	rolectl "github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the base path for role management.
const Path = handler.APIPath + "/roles"

// Input is the create and update request body. Permissions is only read on
// create; use the permissions sub-resource afterwards.
type Input struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"max=255"`
	Enabled     *bool    `json:"enabled"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// PermissionsInput replaces the permission set of a role.
type PermissionsInput struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// Output is a role with its permission codes flattened.
type Output struct {
	models.Role
	Codes []string `json:"codes"`
}

var knownErrors = []handler.ErrorStatus{ //nolint:gochecknoglobals
	{Err: rolectl.ErrRoleNotFound, Status: fiber.StatusNotFound},
	{Err: rolectl.ErrRoleNameEmpty, Status: fiber.StatusBadRequest},
	{Err: permission.ErrUnknownPermission, Status: fiber.StatusBadRequest},
	{Err: rolectl.ErrRoleExists, Status: fiber.StatusConflict},
	{Err: rolectl.ErrSystemRole, Status: fiber.StatusConflict},
	{Err: rolectl.ErrRoleInUse, Status: fiber.StatusConflict},
}

// Service provides CRUD operations for roles.
type Service struct {
	handler.Service
	db       *gorm.DB
	registry *permission.Registry
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
	s.registry = gate.Evaluator().Registry()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequirePermission(gate, permission.RoleView), s.List)
		router.Get("/:id", auth.RequirePermission(gate, permission.RoleView), s.Get)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.RoleCreate), s.Create)
		router.Put("/:id", auth.RequirePermission(gate, permission.RoleEdit), s.Update)
		router.Put("/:id/permissions", auth.RequirePermission(gate, permission.RoleEdit), s.SetPermissions)
		router.Delete("/:id", auth.RequirePermission(gate, permission.RoleDelete), s.Delete)
	})
}

// List returns every role.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := rolectl.List(s.db)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	out := make([]Output, 0, len(roles))
	for _, r := range roles {
		out = append(out, toOutput(r))
	}

	return response.OK(c, out)
}

// Get returns one role.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	r, err := rolectl.Get(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, toOutput(*r))
}

// Create creates a role with an optional initial permission set.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(Input)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	r := &models.Role{Name: in.Name, Description: in.Description, Enabled: in.Enabled == nil || *in.Enabled}

	if err := rolectl.Create(s.db, s.registry, r, codes(in.Permissions)); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("role_id", r.ID).Str("name", r.Name).Msg("role created")

	return response.Created(c, toOutput(*r))
}

// Update edits the name, description and enabled flag of a role.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(Input)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	r, err := rolectl.Update(s.db, id, models.Role{
		Name:        in.Name,
		Description: in.Description,
		Enabled:     in.Enabled == nil || *in.Enabled,
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, toOutput(*r))
}

// SetPermissions replaces the permission set of a role. The change applies
// to the next request of every holder.
func (s *Service) SetPermissions(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(PermissionsInput)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	r, err := rolectl.SetPermissions(s.db, s.registry, id, codes(in.Permissions))
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("role_id", r.ID).Strs("permissions", r.PermissionCodes()).Msg("role permissions replaced")

	return response.OK(c, toOutput(*r))
}

// Delete removes a role that is neither a system role nor assigned.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	if err = rolectl.Delete(s.db, id); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("role_id", id).Msg("role deleted")

	return response.OK(c, nil)
}

func codes(raw []string) []permission.Code {
	out := make([]permission.Code, 0, len(raw))
	for _, s := range raw {
		out = append(out, permission.Code(s))
	}

	return out
}

func toOutput(r models.Role) Output {
	return Output{Role: r, Codes: r.PermissionCodes()}
}
