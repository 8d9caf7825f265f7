// Package price serves price records. Every price belongs to one
// organization and is only visible inside that organization's scope.
package price

import (
	"errors"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	pricectl "github.com/senma231/checkprice-sub001/internal/db/controller/price"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// Path is the base path for prices.
const Path = handler.APIPath + "/prices"

// Input is the create and update request body.
type Input struct {
	OrganizationID uint       `json:"organizationId" validate:"required"`
	ServiceID      uint       `json:"serviceId"      validate:"required"`
	Amount         string     `json:"amount"         validate:"required,max=32"`
	Currency       string     `json:"currency"       validate:"required,len=3,alpha"`
	ValidFrom      time.Time  `json:"validFrom"      validate:"required"`
	ValidTo        *time.Time `json:"validTo"`
	Remark         string     `json:"remark"         validate:"max=255"`
}

func (in *Input) model() models.Price {
	return models.Price{
		OrganizationID: in.OrganizationID,
		ServiceID:      in.ServiceID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		ValidFrom:      in.ValidFrom,
		ValidTo:        in.ValidTo,
		Remark:         in.Remark,
	}
}

var knownErrors = []handler.ErrorStatus{ //nolint:gochecknoglobals
	{Err: pricectl.ErrPriceNotFound, Status: fiber.StatusNotFound},
	{Err: pricectl.ErrInvalidAmount, Status: fiber.StatusBadRequest},
	{Err: pricectl.ErrInvalidValidity, Status: fiber.StatusBadRequest},
	{Err: pricectl.ErrUnknownOrganization, Status: fiber.StatusBadRequest},
	{Err: pricectl.ErrUnknownService, Status: fiber.StatusBadRequest},
}

// Service provides CRUD operations for prices.
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

	owner := auth.WithScope(s.ownerScope)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			auth.RequirePermission(gate, permission.PriceView, auth.WithScope(handler.ScopeQuery("orgId"))),
			s.List,
		)
		router.Get("/:id", auth.RequirePermission(gate, permission.PriceView, owner), s.Get)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.PriceCreate), s.Create)
		router.Put("/:id", auth.RequirePermission(gate, permission.PriceEdit, owner), s.Update)
		router.Delete("/:id", auth.RequirePermission(gate, permission.PriceDelete, owner), s.Delete)
	})
}

// ownerScope reads the owning organization of the price named by the id
// parameter.
func (s *Service) ownerScope(c *fiber.Ctx) (uint, bool, error) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return 0, false, err
	}

	var owners []uint

	err = s.db.WithContext(c.UserContext()).Model(&models.Price{}).
		Where("id = ?", id).Pluck("organization_id", &owners).Error
	if err != nil {
		return 0, false, err
	}

	if len(owners) == 0 {
		return 0, false, fiber.NewError(fiber.StatusNotFound, pricectl.ErrPriceNotFound.Error())
	}

	return owners[0], true, nil
}

// List returns a page of prices in scope. The optional orgId query parameter
// narrows the list to that organization and its descendants; serviceId
// filters by service.
func (s *Service) List(c *fiber.Ctx) error {
	all, ids, err := handler.Scope(c, s.gate)
	if err != nil {
		return handler.Respond(c, err)
	}

	orgID, narrowed, err := handler.QueryID(c, "orgId")
	if err != nil {
		return handler.Respond(c, err)
	}

	if narrowed {
		sub, errSub := s.subtree(c, orgID)
		if errSub != nil {
			return handler.Respond(c, errSub)
		}

		if !all {
			sub = slices.DeleteFunc(sub, func(id uint) bool { return !slices.Contains(ids, id) })
		}

		all, ids = false, sub
	}

	serviceID, _, err := handler.QueryID(c, "serviceId")
	if err != nil {
		return handler.Respond(c, err)
	}

	page, pageSize := handler.Paging(c)

	prices, total, err := pricectl.List(s.db, pricectl.Query{
		Scoped:          !all,
		OrganizationIDs: ids,
		ServiceID:       serviceID,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.Page(c, prices, total)
}

// subtree returns org and every descendant of it. A cycle below org yields
// the part that could be walked.
func (s *Service) subtree(c *fiber.Ctx, org uint) ([]uint, error) {
	forest, err := s.gate.Forest(c.UserContext())
	if err != nil {
		return nil, err
	}

	desc, err := forest.DescendantsOf(org)

	switch {
	case errors.Is(err, orgtree.ErrUnknownOrganization):
		return []uint{}, nil
	case errors.Is(err, orgtree.ErrCyclicHierarchy):
		log.Warn().Err(err).Uint("organization_id", org).Msg("organization hierarchy is malformed")
	case err != nil:
		return nil, err
	}

	return append([]uint{org}, desc...), nil
}

// Get returns one price.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	p, err := pricectl.Get(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, p)
}

// Create creates a price owned by an organization in scope.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(Input)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	if err := s.checkOwner(c, in.OrganizationID); err != nil {
		return handler.Respond(c, err)
	}

	p := in.model()
	if err := pricectl.Create(s.db, &p); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("price_id", p.ID).Uint("organization_id", p.OrganizationID).Msg("price created")

	return response.Created(c, p)
}

// Update edits a price. Moving it to another organization requires that
// organization to be in scope too.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(Input)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	if err = s.checkOwner(c, in.OrganizationID); err != nil {
		return handler.Respond(c, err)
	}

	p, err := pricectl.Update(s.db, id, in.model())
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, p)
}

// Delete removes a price.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	if err = pricectl.Delete(s.db, id); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	log.Info().Uint("price_id", id).Msg("price deleted")

	return response.OK(c, nil)
}

func (s *Service) checkOwner(c *fiber.Ctx, org uint) error {
	ok, err := handler.InScope(c, s.gate, nil, org)
	if err != nil {
		return err
	}

	if !ok {
		return handler.ErrForbidden
	}

	return nil
}
