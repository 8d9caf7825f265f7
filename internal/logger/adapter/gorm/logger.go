// Package gorm routes gorm's statement and slow query logging into zerolog.
package gorm

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"

	"github.com/senma231/checkprice-sub001/internal/logger"
)

// SlowThreshold marks queries that are logged at warn level.
const SlowThreshold = 500 * time.Millisecond

// Writer implements gorm's logger.Writer on top of a zerolog logger.
type Writer struct {
	Logger zerolog.Logger
}

// Printf implements gormlogger.Writer. gorm prefixes error and slow query
// lines with fixed markers which select the level.
func (w Writer) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.Logger.Warn().Str("component", "gorm").Msg(msg)
	case strings.Contains(msg, "Error") || strings.Contains(msg, "error"):
		w.Logger.Error().Str("component", "gorm").Msg(msg)
	default:
		w.Logger.Debug().Str("component", "gorm").Msg(msg)
	}
}

// New returns a gorm logger writing through the global zerolog logger. With
// LogSQL every statement is logged, otherwise only errors and slow queries.
func New(cfg logger.Log) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogSQL {
		level = gormlogger.Info
	}

	return gormlogger.New(Writer{Logger: log.Logger}, gormlogger.Config{
		SlowThreshold:             SlowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
