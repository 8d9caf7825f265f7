package web

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	fiberlogger "github.com/senma231/checkprice-sub001/internal/logger/adapter/fiber"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/handler/account"
	"github.com/senma231/checkprice-sub001/internal/web/handler/admin/diagnostics"
	"github.com/senma231/checkprice-sub001/internal/web/handler/admin/organization"
	permissionhandler "github.com/senma231/checkprice-sub001/internal/web/handler/admin/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler/admin/role"
	"github.com/senma231/checkprice-sub001/internal/web/handler/admin/user"
	"github.com/senma231/checkprice-sub001/internal/web/handler/catalog"
	"github.com/senma231/checkprice-sub001/internal/web/handler/dashboard"
	"github.com/senma231/checkprice-sub001/internal/web/handler/login"
	"github.com/senma231/checkprice-sub001/internal/web/handler/logout"
	"github.com/senma231/checkprice-sub001/internal/web/handler/price"
	"github.com/senma231/checkprice-sub001/internal/web/handler/report"
	authmiddleware "github.com/senma231/checkprice-sub001/internal/web/middleware/auth"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until the
// server is shut down.
func (s *Service) Start(addr string) error {
	s.alive.Store(true)

	if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the web service. Unless fast shutdown is set, checkalive
// answers 503 for ShutDownTime seconds first so load balancers drain the
// instance.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)

		select {
		case <-time.After(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second):
		case <-ctx.Done():
		}
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.ShutdownWithContext(ctx); err != nil {
		return err
	}

	log.Info().Msg("http server was stopped ... good bye...")

	return nil
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, reg *permission.Registry) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if reg == nil {
		panic("permission registry cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   response.ErrorHandler,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	checkAlive := ""
	if cfg.Log.DisableCheckAlive {
		checkAlive = CheckAlivePath
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAlive,
		UserID:        actingUser,
	}))

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// session cookie to principal snapshot, never rejects
	app.Use(authmiddleware.Middleware)

	principals := auth.NewService(db, reg)
	gate := auth.NewGate(auth.NewEvaluator(reg), principals, principals)

	if err := login.Handler.Init(app, cfg, db, principals); err != nil {
		return nil, err
	}

	logout.Handler.Init(app, cfg)

	for _, h := range []handler.Service{
		&account.Handler,
		&dashboard.Handler,
		&organization.Handler,
		&diagnostics.Handler,
		&permissionhandler.Handler,
		&role.Handler,
		&user.Handler,
		&catalog.Handler,
		&price.Handler,
		&report.Handler,
	} {
		h.Init(app, cfg, db, gate)
	}

	app.Use(handler.APIPath, func(c *fiber.Ctx) error {
		return response.Fail(c, fiber.StatusNotFound, "not found")
	})

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("ok")
}

// cleanPath collapses duplicate slashes and dot segments before routing.
func cleanPath(c *fiber.Ctx) error {
	p := c.Path()
	if strings.Contains(p, "//") || strings.Contains(p, "/.") {
		cleaned := path.Clean(p)
		if strings.HasSuffix(p, "/") && cleaned != "/" {
			cleaned += "/"
		}

		c.Path(cleaned)
	}

	return c.Next()
}

// actingUser reports the user resolved by the authorization gate. Requests
// that never reached a gate fall back to the session identity.
func actingUser(c *fiber.Ctx) (uint64, bool) {
	p := auth.PrincipalFrom(c)
	if p == nil {
		p = auth.SessionPrincipal(c)
	}

	if p == nil {
		return 0, false
	}

	return p.UserID, true
}
