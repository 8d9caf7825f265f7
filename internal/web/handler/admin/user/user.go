// Package user provides handlers for managing staff accounts in the admin area.
package user

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	rolectl "github.com/senma231/checkprice-sub001/internal/db/controller/role"
	userctl "github.com/senma231/checkprice-sub001/internal/db/controller/user"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the base path for user management.
const Path = handler.APIPath + "/users"

// CreateInput is the create request body. Accounts created here always
// authenticate locally; directory accounts are created on first login.
type CreateInput struct {
	Username       string `json:"username"       validate:"required,min=3,max=100"`
	Email          string `json:"email"          validate:"required,email,max=255"`
	RealName       string `json:"realName"       validate:"max=100"`
	Password       string `json:"password"       validate:"required,min=8,max=128"`
	OrganizationID *uint  `json:"organizationId"`
	Active         *bool  `json:"active"`
	RoleIDs        []uint `json:"roleIds"`
}

// UpdateInput is the update request body.
type UpdateInput struct {
	Email          string `json:"email"          validate:"required,email,max=255"`
	RealName       string `json:"realName"       validate:"max=100"`
	OrganizationID *uint  `json:"organizationId"`
	Active         bool   `json:"active"`
}

// RolesInput replaces the roles of a user.
type RolesInput struct {
	RoleIDs []uint `json:"roleIds" validate:"dive,gt=0"`
}

// PasswordInput resets the password of a local user.
type PasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

var knownErrors = []handler.ErrorStatus{ //nolint:gochecknoglobals
	{Err: userctl.ErrUserNotFound, Status: fiber.StatusNotFound},
	{Err: userctl.ErrUserExists, Status: fiber.StatusConflict},
	{Err: userctl.ErrUnknownRole, Status: fiber.StatusBadRequest},
	{Err: userctl.ErrUnknownOrganization, Status: fiber.StatusBadRequest},
	{Err: userctl.ErrNotLocalUser, Status: fiber.StatusConflict},
}

var (
	errDeleteSelf     = fiber.NewError(fiber.StatusBadRequest, "you cannot delete your own account")       //nolint:gochecknoglobals
	errDeactivateSelf = fiber.NewError(fiber.StatusBadRequest, "you cannot deactivate your own account")   //nolint:gochecknoglobals
	errDeleteAdmin    = fiber.NewError(fiber.StatusForbidden, "admin users cannot be deleted")             //nolint:gochecknoglobals
)

// Service provides CRUD operations for users.
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

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequirePermission(gate, permission.UserView), s.List)
		router.Get("/:id", auth.RequirePermission(gate, permission.UserView), s.Get)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.UserCreate), s.Create)
		router.Put("/:id", auth.RequirePermission(gate, permission.UserEdit), s.Update)
		router.Put("/:id/roles", auth.RequirePermission(gate, permission.UserEdit), s.AssignRoles)

		if cfg.Auth.LocalDB {
			router.Put("/:id/password", auth.RequirePermission(gate, permission.UserEdit), s.SetPassword)
		}

		router.Delete("/:id", auth.RequirePermission(gate, permission.UserDelete), s.Delete)
	})
}

// List returns a page of users of the organizations in scope.
func (s *Service) List(c *fiber.Ctx) error {
	all, ids, err := handler.Scope(c, s.gate)
	if err != nil {
		return handler.Respond(c, err)
	}

	page, pageSize := handler.Paging(c)

	users, total, err := userctl.List(s.db, userctl.Query{
		Search:          c.Query("search"),
		Scoped:          !all,
		OrganizationIDs: ids,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.Page(c, users, total)
}

// Get returns one user.
func (s *Service) Get(c *fiber.Ctx) error {
	u, err := s.target(c)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, u)
}

// Create creates a local user.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(CreateInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	if err := s.checkOrganization(c, in.OrganizationID); err != nil {
		return handler.Respond(c, err)
	}

	if err := s.checkAdminGrant(c, nil, in.RoleIDs); err != nil {
		return handler.Respond(c, err)
	}

	u := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		RealName:       in.RealName,
		OrganizationID: in.OrganizationID,
		Active:         in.Active == nil || *in.Active,
	}

	if err := userctl.Create(s.db, u, in.Password, in.RoleIDs); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("user created")

	return response.Created(c, u)
}

// Update edits the profile, active flag and organization of a user.
func (s *Service) Update(c *fiber.Ctx) error {
	in := new(UpdateInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	current, err := s.target(c)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if err = s.checkAdminGrant(c, current, nil); err != nil {
		return handler.Respond(c, err)
	}

	if !in.Active && current.ID == auth.PrincipalFrom(c).UserID {
		return handler.Respond(c, errDeactivateSelf)
	}

	if err = s.checkOrganization(c, in.OrganizationID); err != nil {
		return handler.Respond(c, err)
	}

	u, err := userctl.Update(s.db, current.ID, models.User{
		Email:          in.Email,
		RealName:       in.RealName,
		Active:         in.Active,
		OrganizationID: in.OrganizationID,
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, u)
}

// AssignRoles replaces the roles of a user. The change applies to the next
// request of that user.
func (s *Service) AssignRoles(c *fiber.Ctx) error {
	in := new(RolesInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	current, err := s.target(c)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if err = s.checkAdminGrant(c, current, in.RoleIDs); err != nil {
		return handler.Respond(c, err)
	}

	u, err := userctl.AssignRoles(s.db, current.ID, in.RoleIDs)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint64("user_id", u.ID).Strs("roles", u.RoleNames()).Msg("user roles replaced")

	return response.OK(c, u)
}

// SetPassword resets the password of a local user.
func (s *Service) SetPassword(c *fiber.Ctx) error {
	in := new(PasswordInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	current, err := s.target(c)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if err = s.checkAdminGrant(c, current, nil); err != nil {
		return handler.Respond(c, err)
	}

	if err = userctl.SetPassword(s.db, current.ID, in.Password); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint64("user_id", current.ID).Msg("user password reset")

	return response.OK(c, nil)
}

// Delete removes a user. Admin users and the caller's own account are kept.
func (s *Service) Delete(c *fiber.Ctx) error {
	current, err := s.target(c)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	if current.ID == auth.PrincipalFrom(c).UserID {
		return handler.Respond(c, errDeleteSelf)
	}

	if slices.Contains(current.RoleNames(), permission.AdminRole) {
		return handler.Respond(c, errDeleteAdmin)
	}

	if err = userctl.Delete(s.db, current.ID); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint64("user_id", current.ID).Str("username", current.Username).Msg("user deleted")

	return response.OK(c, nil)
}

// target loads the user named by the id parameter and checks that it lies in
// the principal's scope.
func (s *Service) target(c *fiber.Ctx) (*models.User, error) {
	id, err := handler.ParamID64(c, "id")
	if err != nil {
		return nil, err
	}

	u, err := userctl.Get(s.db, id)
	if err != nil {
		return nil, err
	}

	if err = s.checkOrganization(c, u.OrganizationID); err != nil {
		return nil, err
	}

	return u, nil
}

// checkOrganization refuses organizations outside the principal's scope.
// Users without an organization are only visible to the global scope.
func (s *Service) checkOrganization(c *fiber.Ctx, org *uint) error {
	if org == nil {
		if s.gate.Evaluator().HasGlobalScope(auth.PrincipalFrom(c)) {
			return nil
		}

		return handler.ErrForbidden
	}

	ok, err := handler.InScope(c, s.gate, nil, *org)
	if err != nil {
		return err
	}

	if !ok {
		return handler.ErrForbidden
	}

	return nil
}

// checkAdminGrant refuses non-admin principals that would grant the admin
// role or modify a user who holds it.
func (s *Service) checkAdminGrant(c *fiber.Ctx, target *models.User, roleIDs []uint) error {
	if auth.PrincipalFrom(c).IsAdmin() {
		return nil
	}

	if target != nil && slices.Contains(target.RoleNames(), permission.AdminRole) {
		return handler.ErrForbidden
	}

	if len(roleIDs) == 0 {
		return nil
	}

	admin, err := rolectl.GetByName(s.db, permission.AdminRole)
	if err != nil {
		return err
	}

	if slices.Contains(roleIDs, admin.ID) {
		return handler.ErrForbidden
	}

	return nil
}
