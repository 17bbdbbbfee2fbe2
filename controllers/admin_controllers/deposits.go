package admin_controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/entities"
	"github.com/zsmartex/tradecore/controllers/helpers"
	"github.com/zsmartex/tradecore/controllers/queries"
	"github.com/zsmartex/tradecore/orders"
)

func CreateDeposit(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := new(helpers.Errors)
		params := new(queries.DepositParams)
		if err := c.BodyParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageBody},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		balance, err := manager.Deposit(c.UserContext(), params.UserID, strings.ToUpper(params.Currency), params.Amount)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(201).JSON(entities.BalanceToEntity(balance))
	}
}
