// Package diagnostics exposes data-quality findings about the organization
// hierarchy to administrators.
package diagnostics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the hierarchy diagnostics endpoint.
const Path = handler.APIPath + "/diagnostics/hierarchy"

// Service serves hierarchy diagnostics.
type Service struct {
	handler.Service
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

	s.gate = gate

	app.Get(Path, auth.RequirePermission(gate, permission.SystemDiagnostics), s.Get)
}

// Get builds the forest from the stored organizations and returns its summary.
func (s *Service) Get(c *fiber.Ctx) error {
	forest, err := s.gate.Forest(c.UserContext())
	if err != nil {
		return handler.Respond(c, err)
	}

	summary := forest.Summarize()

	if summary.Malformed {
		log.Warn().
			Int("cyclic", summary.Counts[orgtree.KindCyclicHierarchy]).
			Msg("organization hierarchy is malformed")
	}

	return response.OK(c, summary)
}
