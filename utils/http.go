// utils/http.go - Fiber response helpers
package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// JSON sends data with the given status.
func JSON(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// JSONError sends the standard error envelope.
func JSONError(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, fiber.Map{
		"success": false,
		"error":   message,
	})
}

// JSONSuccess sends {"success": true} merged with data.
func JSONSuccess(c *fiber.Ctx, data fiber.Map) error {
	response := fiber.Map{"success": true}
	for k, v := range data {
		response[k] = v
	}
	return JSON(c, fiber.StatusOK, response)
}

// ParseJSON decodes the request body into v. An empty body leaves v untouched.
func ParseJSON(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// ParamUint reads a positive integer route parameter.
func ParamUint(c *fiber.Ctx, key string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || n == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return uint(n), nil
}
