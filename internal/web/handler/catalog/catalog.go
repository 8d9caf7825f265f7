// Package catalog serves the service types and services that prices refer to.
package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	catalogctl "github.com/senma231/checkprice-sub001/internal/db/controller/catalog"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

const (
	// ServiceTypePath is the base path for service types.
	ServiceTypePath = handler.APIPath + "/service-types"
	// ServicePath is the base path for services.
	ServicePath = handler.APIPath + "/services"
)

// ServiceTypeInput is the service type request body.
type ServiceTypeInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
	Enabled     *bool  `json:"enabled"`
}

// ServiceInput is the service request body.
type ServiceInput struct {
	ServiceTypeID uint   `json:"serviceTypeId" validate:"required"`
	Name          string `json:"name"          validate:"required,max=100"`
	Description   string `json:"description"   validate:"max=255"`
	Enabled       *bool  `json:"enabled"`
}

var knownErrors = []handler.ErrorStatus{ //nolint:gochecknoglobals
	{Err: catalogctl.ErrServiceTypeNotFound, Status: fiber.StatusNotFound},
	{Err: catalogctl.ErrServiceNotFound, Status: fiber.StatusNotFound},
	{Err: catalogctl.ErrNameEmpty, Status: fiber.StatusBadRequest},
	{Err: catalogctl.ErrServiceTypeExists, Status: fiber.StatusConflict},
	{Err: catalogctl.ErrServiceTypeInUse, Status: fiber.StatusConflict},
	{Err: catalogctl.ErrServiceInUse, Status: fiber.StatusConflict},
}

// Service provides CRUD operations for the service catalog.
type Service struct {
	handler.Service
	db *gorm.DB
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

	app.Route(ServiceTypePath, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequirePermission(gate, permission.ServiceTypeView), s.ListServiceTypes)
		router.Get("/:id", auth.RequirePermission(gate, permission.ServiceTypeView), s.GetServiceType)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.ServiceTypeCreate), s.CreateServiceType)
		router.Put("/:id", auth.RequirePermission(gate, permission.ServiceTypeEdit), s.UpdateServiceType)
		router.Delete("/:id", auth.RequirePermission(gate, permission.ServiceTypeDelete), s.DeleteServiceType)
	})

	app.Route(ServicePath, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequirePermission(gate, permission.ServiceView), s.ListServices)
		router.Get("/:id", auth.RequirePermission(gate, permission.ServiceView), s.GetService)
		router.Post(handler.RootPath, auth.RequirePermission(gate, permission.ServiceCreate), s.CreateService)
		router.Put("/:id", auth.RequirePermission(gate, permission.ServiceEdit), s.UpdateService)
		router.Delete("/:id", auth.RequirePermission(gate, permission.ServiceDelete), s.DeleteService)
	})
}

// ListServiceTypes returns every service type.
func (s *Service) ListServiceTypes(c *fiber.Ctx) error {
	out, err := catalogctl.ListServiceTypes(s.db)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, out)
}

// GetServiceType returns one service type.
func (s *Service) GetServiceType(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	st, err := catalogctl.GetServiceType(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, st)
}

// CreateServiceType creates a service type.
func (s *Service) CreateServiceType(c *fiber.Ctx) error {
	in := new(ServiceTypeInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	st := &models.ServiceType{Name: in.Name, Description: in.Description, Enabled: enabled(in.Enabled)}
	if err := catalogctl.CreateServiceType(s.db, st); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.Created(c, st)
}

// UpdateServiceType edits a service type.
func (s *Service) UpdateServiceType(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(ServiceTypeInput)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	st, err := catalogctl.UpdateServiceType(s.db, id, models.ServiceType{
		Name: in.Name, Description: in.Description, Enabled: enabled(in.Enabled),
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, st)
}

// DeleteServiceType removes a service type without services.
func (s *Service) DeleteServiceType(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	if err = catalogctl.DeleteServiceType(s.db, id); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, nil)
}

// ListServices returns services, optionally filtered by the serviceTypeId
// query parameter.
func (s *Service) ListServices(c *fiber.Ctx) error {
	typeID, _, err := handler.QueryID(c, "serviceTypeId")
	if err != nil {
		return handler.Respond(c, err)
	}

	out, err := catalogctl.ListServices(s.db, typeID)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, out)
}

// GetService returns one service.
func (s *Service) GetService(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	svc, err := catalogctl.GetService(s.db, id)
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, svc)
}

// CreateService creates a service below an existing service type.
func (s *Service) CreateService(c *fiber.Ctx) error {
	in := new(ServiceInput)
	if err := handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	svc := &models.Service{
		ServiceTypeID: in.ServiceTypeID,
		Name:          in.Name,
		Description:   in.Description,
		Enabled:       enabled(in.Enabled),
	}

	if err := catalogctl.CreateService(s.db, svc); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.Created(c, svc)
}

// UpdateService edits a service.
func (s *Service) UpdateService(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	in := new(ServiceInput)
	if err = handler.Bind(c, in); err != nil {
		return handler.Respond(c, err)
	}

	svc, err := catalogctl.UpdateService(s.db, id, models.Service{
		ServiceTypeID: in.ServiceTypeID,
		Name:          in.Name,
		Description:   in.Description,
		Enabled:       enabled(in.Enabled),
	})
	if err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, svc)
}

// DeleteService removes a service without prices.
func (s *Service) DeleteService(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return handler.Respond(c, err)
	}

	if err = catalogctl.DeleteService(s.db, id); err != nil {
		return handler.Respond(c, err, knownErrors...)
	}

	return response.OK(c, nil)
}

func enabled(v *bool) bool {
	return v == nil || *v
}
