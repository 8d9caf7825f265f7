// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/senma231/checkprice-sub001/internal/config"
)

// Create builds the gorm Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return Postgres(cfg)
	case config.EngineSQLite:
		return SQLite(cfg)
	default:
		return MySQL(cfg)
	}
}

// MySQL builds a go-sql-driver DSN.
func MySQL(cfg *config.Config) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
	)

	if cfg.DB.Extras != "" {
		out += "?" + cfg.DB.Extras
	}

	return out
}

// Postgres builds a keyword/value DSN. Extras are appended as given, e.g.
// "sslmode=disable TimeZone=UTC".
func Postgres(cfg *config.Config) string {
	parts := []string{
		"host=" + cfg.DB.Host,
		"port=" + strconv.Itoa(cfg.DB.Port),
		"user=" + cfg.DB.User,
		"password=" + cfg.DB.Password,
		"dbname=" + cfg.DB.Name,
	}

	if cfg.DB.Extras != "" {
		parts = append(parts, cfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// PostgresURL builds the URL form used by the session storage. Extras in
// keyword/value form become query parameters.
func PostgresURL(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DB.User, cfg.DB.Password),
		Host:   net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port)),
		Path:   "/" + cfg.DB.Name,
	}

	q := url.Values{}

	for _, kv := range strings.Fields(cfg.DB.Extras) {
		if k, v, ok := strings.Cut(kv, "="); ok {
			q.Set(k, v)
		}
	}

	u.RawQuery = q.Encode()

	return u.String()
}

// SQLite returns the database file path with optional query parameters.
func SQLite(cfg *config.Config) string {
	if cfg.DB.Extras == "" {
		return cfg.DB.Name
	}

	return cfg.DB.Name + "?" + cfg.DB.Extras
}
