// Package response writes the JSON envelope shared by every API handler.
package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response. Data is set on success,
// Message on failure.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

// OK writes a 200 response carrying data.
func OK(c *fiber.Ctx, data any) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

// Created writes a 201 response carrying data.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

// Page writes a 200 response carrying one page of a list and the total count.
func Page(c *fiber.Ctx, data any, total int64) error {
	return c.JSON(Envelope{Success: true, Data: data, Total: &total})
}

// Fail writes an error response with the given status and message.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// Error writes err with the status carried by a *fiber.Error, 500 otherwise.
// The message of a 500 is never taken from err.
func Error(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Fail(c, fe.Code, fe.Message)
	}

	return Fail(c, fiber.StatusInternalServerError, "internal server error")
}

// ErrorHandler is the fiber error handler of the API. It keeps the envelope
// for errors escaping handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Error(c, err)
}
