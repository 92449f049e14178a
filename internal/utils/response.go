package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the wire shape for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "server error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

// SendJSON sends a success payload with an explicit status code.
func SendJSON(c *fiber.Ctx, status int, payload interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(payload)
}
