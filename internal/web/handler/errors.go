package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// ErrorStatus pairs a known controller error with the status it is answered
// with. The error text is shown to the client.
type ErrorStatus struct {
	Err    error
	Status int
}

// Respond writes err. A *fiber.Error or an error listed in known is sent to
// the client; anything else is logged and answered with a generic 500.
func Respond(c *fiber.Ctx, err error, known ...ErrorStatus) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Fail(c, fe.Code, fe.Message)
	}

	for _, k := range known {
		if errors.Is(err, k.Err) {
			return response.Fail(c, k.Status, k.Err.Error())
		}
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

	return response.Fail(c, fiber.StatusInternalServerError, "internal server error")
}

// ParamID parses the route parameter name as a positive id.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return uint(id), nil
}

// ParamID64 parses the route parameter name as a positive 64 bit id.
func ParamID64(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return id, nil
}

// QueryID parses the optional query parameter name. ok is false when absent.
func QueryID(c *fiber.Ctx, name string) (id uint, ok bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}

	v, errParse := strconv.ParseUint(raw, 10, 32)
	if errParse != nil || v == 0 {
		return 0, false, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return uint(v), true, nil
}

// Paging reads the page and pageSize query parameters. Pages above MaxPage
// are clamped to MaxPage.
func Paging(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	if page > MaxPage {
		page = MaxPage
	}

	pageSize = c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}
