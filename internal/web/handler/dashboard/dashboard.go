// Package dashboard provides the menu and the dashboard summary.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/controller/price"
	"github.com/senma231/checkprice-sub001/internal/db/controller/user"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/navigation"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

const (
	// Path is the path of the dashboard summary.
	Path = handler.APIPath + "/dashboard"

	// MenuPath is the path of the filtered menu.
	MenuPath = handler.APIPath + "/menu"

	recentPrices = 5
)

// Menu is the menu visible to the principal and the navigation context of
// the requested page.
type Menu struct {
	Items      []navigation.MenuItem `json:"items"`
	Navigation *navigation.Context   `json:"navigation"`
}

// Summary holds the dashboard figures, restricted to the principal's scope.
type Summary struct {
	GlobalScope   bool           `json:"globalScope"`
	Organizations int            `json:"organizations"`
	Users         int64          `json:"users"`
	Services      int64          `json:"services"`
	Prices        int64          `json:"prices"`
	RecentPrices  []models.Price `json:"recentPrices"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	db   *gorm.DB
	gate *auth.Gate
	menu []navigation.MenuItem
}

// Handler is the dashboard handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the dashboard routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *auth.Gate) {
	if app == nil || cfg == nil || db == nil || gate == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.gate = gate
	s.menu = navigation.DefaultMenu()

	if err := gate.Evaluator().Registry().Validate(navigation.RequiredCodes(s.menu)...); err != nil {
		log.Fatal().Err(err).Msg("menu references unknown permission codes")
		return
	}

	app.Get(MenuPath, auth.RequireAuthenticated(gate), s.Menu)
	app.Get(Path, auth.RequirePermission(gate, permission.DashboardView), s.Summary)
}

// Menu returns the menu filtered for the principal. The optional path query
// parameter selects the page of the navigation context.
func (s *Service) Menu(c *fiber.Ctx) error {
	items := s.gate.Evaluator().VisibleMenuSections(auth.PrincipalFrom(c), s.menu)

	return response.OK(c, Menu{
		Items:      items,
		Navigation: navigation.ContextFor(items, c.Query("path")),
	})
}

// Summary returns the dashboard figures.
func (s *Service) Summary(c *fiber.Ctx) error {
	all, ids, err := handler.Scope(c, s.gate)
	if err != nil {
		return handler.Respond(c, err)
	}

	out := Summary{GlobalScope: all, Organizations: len(ids)}

	if all {
		var n int64
		if err = s.db.Model(&models.Organization{}).Count(&n).Error; err != nil {
			return handler.Respond(c, err)
		}

		out.Organizations = int(n)
	}

	if _, out.Users, err = user.List(s.db, user.Query{Scoped: !all, OrganizationIDs: ids, PageSize: 1}); err != nil {
		return handler.Respond(c, err)
	}

	if err = s.db.Model(&models.Service{}).Where("enabled = ?", true).Count(&out.Services).Error; err != nil {
		return handler.Respond(c, err)
	}

	prices, total, err := price.List(s.db, price.Query{
		Scoped:          !all,
		OrganizationIDs: ids,
		Newest:          true,
		PageSize:        recentPrices,
	})
	if err != nil {
		return handler.Respond(c, err)
	}

	out.Prices = total
	out.RecentPrices = prices

	return response.OK(c, out)
}
