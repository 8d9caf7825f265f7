// Package login provides the session login and logout endpoints.
package login

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
	"github.com/senma231/checkprice-sub001/internal/web/session"
)

const (
	// Path is the path of the login endpoint.
	Path = handler.APIPath + "/auth/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg           *config.Config
	authenticator *auth.Authenticator
	resolver      auth.PrincipalResolver
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Input is the login request body.
type Input struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=255"`
}

// Output is the login response body.
type Output struct {
	Principal *auth.Principal `json:"principal"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, resolver auth.PrincipalResolver) error {
	if app == nil || cfg == nil || db == nil || resolver == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	authenticator, err := auth.NewAuthenticator(&cfg.Auth, db)
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.authenticator = authenticator
	s.resolver = resolver

	app.Post(Path, s.Post)

	return nil
}

// Post authenticates the user and opens a session.
func (s *Service) Post(c *fiber.Ctx) error {
	in := new(Input)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	user, err := s.authenticator.Login(in.Username, in.Password)
	if err != nil {
		if isCredentialError(err) {
			log.Info().Err(err).Str("username", in.Username).Msg("login failed")

			return response.Fail(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
		}

		log.Error().Err(err).Str("username", in.Username).Msg("login error")

		return response.Fail(c, fiber.StatusInternalServerError, ErrInternalServerError.Error())
	}

	principal, err := s.resolver.ResolvePrincipal(c.UserContext(), user.ID)
	if err != nil {
		if isCredentialError(err) {
			return response.Fail(c, fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
		}

		return handler.Respond(c, err)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return handler.Respond(c, err)
	}

	expiry := s.cfg.Webserver.Session.ExpiryTime
	userSession := session.New(principal, expiry)

	if err = userSession.Write(sessionID, expiry); err != nil {
		return handler.Respond(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(expiry.Seconds()),
		Secure:   s.cfg.Webserver.SecureCookie && !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Uint64("user_id", principal.UserID).Str("username", principal.Username).Msg("user logged in")

	return response.OK(c, Output{Principal: principal, ExpiresAt: userSession.ExpiresAt})
}

func isCredentialError(err error) bool {
	return errors.Is(err, auth.ErrUserNotFound) ||
		errors.Is(err, auth.ErrInvalidPassword) ||
		errors.Is(err, auth.ErrUserAccountDisabled) ||
		errors.Is(err, auth.ErrLocalLoginDisabled) ||
		errors.Is(err, auth.ErrMultipleUsersFound)
}
