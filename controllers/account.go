package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/auth"
	"github.com/zsmartex/tradecore/controllers/entities"
	"github.com/zsmartex/tradecore/controllers/helpers"
	"github.com/zsmartex/tradecore/orders"
)

func GetBalance(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := auth.GetCurrentUser(c)

		balance, err := manager.GetBalance(c.UserContext(), CurrentUser.UID, strings.ToUpper(c.Params("currency")))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(entities.BalanceToEntity(balance))
	}
}
