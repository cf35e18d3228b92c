package middleware

import "github.com/gofiber/fiber/v2"

// GetUserID returns the authenticated user id from the request context, or
// an empty string when the request was not authenticated.
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetDevice returns the device identifier carried in the token, if any.
func GetDevice(c *fiber.Ctx) string {
	if device, ok := c.Locals(DeviceKey).(string); ok {
		return device
	}
	return ""
}
