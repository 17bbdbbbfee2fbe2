package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/auth"
	"github.com/zsmartex/tradecore/controllers/helpers"
)

func AdminVaildator(c *fiber.Ctx) error {
	CurrentUser := auth.GetCurrentUser(c)

	if CurrentUser == nil || !CurrentUser.IsAdmin() {
		return c.Status(403).JSON(helpers.Errors{
			Errors: []string{helpers.AuthzInvalidPermission},
		})
	}

	return c.Next()
}
