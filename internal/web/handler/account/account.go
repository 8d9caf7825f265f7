// Package account serves the logged in user's own profile.
package account

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/controller/organization"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

const (
	// Path is the path of the current principal.
	Path = handler.APIPath + "/auth/me"

	// PasswordPath is the path of the password change.
	PasswordPath = handler.APIPath + "/auth/password"
)

// Profile is the current principal with its organization.
type Profile struct {
	*auth.Principal
	Organization *models.Organization `json:"organization,omitempty"`
	IsAdmin      bool                 `json:"isAdmin"`
	GlobalScope  bool                 `json:"globalScope"`
}

// PasswordInput is the password change request body.
type PasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128,nefield=OldPassword"`
}

// Service is the account handler service.
type Service struct {
	handler.Service
	db    *gorm.DB
	gate  *auth.Gate
	local *auth.LocalProvider
}

// Handler is the account handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the account routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *auth.Gate) {
	if app == nil || cfg == nil || db == nil || gate == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.gate = gate
	s.local = auth.NewLocalProvider(db)

	app.Get(Path, auth.RequireAuthenticated(gate), s.Me)

	if cfg.Auth.LocalDB {
		app.Put(PasswordPath, auth.RequireAuthenticated(gate), s.ChangePassword)
	}
}

// Me returns the freshly resolved principal.
func (s *Service) Me(c *fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	e := s.gate.Evaluator()

	out := Profile{Principal: p, IsAdmin: p.IsAdmin(), GlobalScope: e.HasGlobalScope(p)}

	if p.OrganizationID != nil {
		org, err := organization.Get(s.db, *p.OrganizationID)
		if err != nil {
			log.Warn().Err(err).Uint("organization_id", *p.OrganizationID).Msg("organization of user not loadable")
		} else {
			out.Organization = org
		}
	}

	return response.OK(c, out)
}

// ChangePassword replaces the password of a local account.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	in := new(PasswordInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	p := auth.PrincipalFrom(c)

	err := s.local.ChangePassword(p.UserID, in.OldPassword, in.NewPassword)

	return respond(c, err)
}

func respond(c *fiber.Ctx, err error) error {
	if err != nil {
		return handler.Respond(c, err,
			handler.ErrorStatus{Err: auth.ErrInvalidOldPassword, Status: fiber.StatusBadRequest},
			handler.ErrorStatus{Err: auth.ErrUserNotFound, Status: fiber.StatusBadRequest},
		)
	}

	return response.OK(c, nil)
}
