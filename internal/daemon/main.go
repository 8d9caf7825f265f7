// Package daemon wires the database, session storage and web service and
// runs them until the context is cancelled.
package daemon

import (
	"context"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/dsn"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	gormlogger "github.com/senma231/checkprice-sub001/internal/logger/adapter/gorm"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web"
	"github.com/senma231/checkprice-sub001/internal/web/session"
)

const (
	// SessionTable is the table holding login sessions in database storage.
	SessionTable = "sessions"

	// ShutdownGrace is the time open connections get after the drain period.
	ShutdownGrace = 10 * time.Second
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Run serves HTTP until ctx is cancelled, then shuts the web service down.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + strconv.Itoa(d.cfg.Webserver.Port)
		log.Info().Str("addr", addr).Msg("starting http server")

		return d.webService.Start(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown requested")

		wait := time.Duration(d.cfg.Webserver.ShutDownTime)*time.Second + ShutdownGrace

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), wait)
		defer cancel()

		return d.webService.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// New opens and migrates the database, seeds it and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	reg, err := permission.NewRegistry(permission.DefaultEntries)
	if err != nil {
		return nil, errors.Wrap(err, "invalid permission registry")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	if err = Seed(cfg, db, reg); err != nil {
		return nil, errors.Wrap(err, "failed to seed database")
	}

	storage, err := sessionStorage(cfg)
	if err != nil {
		return nil, err
	}

	session.Init(storage)

	webService, err := web.New(cfg, db, reg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up web service")
	}

	return &Daemon{cfg: cfg, webService: webService}, nil
}

// OpenDB opens the configured database with the zerolog gorm logger.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	case config.EngineMySQL, "":
		dialector = gormmysql.Open(dsn.Create(cfg))
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, cfg.DB.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.New(cfg.Log)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

func sessionStorage(cfg *config.Config) (fiber.Storage, error) {
	if cfg.Webserver.Session.Storage == "memory" {
		log.Warn().Msg("sessions are kept in memory and lost on restart")

		return memory.New(), nil
	}

	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.PostgresURL(cfg),
			Table:         SessionTable,
		}), nil
	case config.EngineSQLite:
		log.Warn().Msg("no database session storage for sqlite, sessions are kept in memory")

		return memory.New(), nil
	case config.EngineMySQL, "":
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(cfg),
			Table:         SessionTable,
		}), nil
	default:
		return nil, errors.Wrap(config.ErrUnknownGormEngine, "session storage")
	}
}
