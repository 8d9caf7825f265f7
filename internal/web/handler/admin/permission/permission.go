// Package permission serves the permission catalog used when editing roles.
package permission

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	perm "github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the catalog endpoint.
const Path = handler.APIPath + "/permissions"

// Catalog lists the registered permissions and their modules.
type Catalog struct {
	Modules     []string     `json:"modules"`
	Permissions []perm.Entry `json:"permissions"`
}

// Service serves the permission catalog.
type Service struct {
	handler.Service
	registry *perm.Registry
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, gate *auth.Gate) {
	if app == nil || cfg == nil || db == nil || gate == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.registry = gate.Evaluator().Registry()

	app.Get(Path, auth.RequirePermission(gate, perm.RoleView), s.List)
}

// List returns the catalog, restricted to the modules named by the repeated
// module query parameter when present.
func (s *Service) List(c *fiber.Ctx) error {
	var modules []string

	for _, m := range c.Context().QueryArgs().PeekMulti("module") {
		if len(m) > 0 {
			modules = append(modules, string(m))
		}
	}

	return response.OK(c, Catalog{
		Modules:     s.registry.Modules(),
		Permissions: s.registry.Entries(modules...),
	})
}
