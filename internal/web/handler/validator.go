package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse describes one failed validation rule.
type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Param       string `json:"param,omitempty"`
}

var validate = validator.New() //nolint:gochecknoglobals

// Validate runs the struct validation rules of data.
func Validate(data any) []ErrorResponse {
	var validationErrors []ErrorResponse

	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []ErrorResponse{{FailedField: "body", Tag: "invalid"}}
	}

	for _, fe := range errs {
		validationErrors = append(validationErrors, ErrorResponse{
			FailedField: fe.Field(),
			Tag:         fe.Tag(),
			Param:       fe.Param(),
		})
	}

	return validationErrors
}

// Bind parses the request body into in and validates it. The returned error
// is a *fiber.Error with status 400.
func Bind(c *fiber.Ctx, in any) error {
	if err := c.BodyParser(in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if errs := Validate(in); len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.FailedField+" ("+e.Tag+")")
		}

		return fiber.NewError(fiber.StatusBadRequest, "invalid fields: "+strings.Join(fields, ", "))
	}

	return nil
}
