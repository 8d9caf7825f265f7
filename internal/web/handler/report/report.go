// Package report serves aggregated views over the prices in scope.
package report

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the price report endpoint.
const Path = handler.APIPath + "/reports/prices"

// Row is the price count of one service type.
type Row struct {
	ServiceTypeID   uint   `json:"serviceTypeId"`
	ServiceTypeName string `json:"serviceTypeName"`
	Services        int64  `json:"services"`
	Prices          int64  `json:"prices"`
}

// Service serves reports.
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

	app.Get(Path, auth.RequirePermission(gate, permission.ReportView), s.Prices)
}

// Prices counts the prices in scope per service type. Service types without
// prices in scope are left out.
func (s *Service) Prices(c *fiber.Ctx) error {
	all, ids, err := handler.Scope(c, s.gate)
	if err != nil {
		return handler.Respond(c, err)
	}

	rows := make([]Row, 0)

	if !all && len(ids) == 0 {
		return response.OK(c, rows)
	}

	tx := s.db.WithContext(c.UserContext()).Model(&models.Price{}).
		Select("service_types.id AS service_type_id, service_types.name AS service_type_name, " +
			"COUNT(DISTINCT prices.service_id) AS services, COUNT(prices.id) AS prices").
		Joins("JOIN services ON services.id = prices.service_id").
		Joins("JOIN service_types ON service_types.id = services.service_type_id").
		Group("service_types.id, service_types.name").
		Order("service_types.id")

	if !all {
		tx = tx.Where("prices.organization_id IN ?", ids)
	}

	if err = tx.Scan(&rows).Error; err != nil {
		return handler.Respond(c, err)
	}

	return response.OK(c, rows)
}
