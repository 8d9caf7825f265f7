package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
)

// Service is the interface for a web handler service. Init registers the
// routes of the handler, each behind the gate.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *auth.Gate)
}
