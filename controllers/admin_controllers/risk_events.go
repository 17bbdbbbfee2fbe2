package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/helpers"
	"github.com/zsmartex/tradecore/controllers/queries"
	"github.com/zsmartex/tradecore/orders"
)

func GetRiskEvents(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := new(helpers.Errors)
		params := new(queries.RiskEventFilters)
		if err := c.QueryParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageQuery},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		events, err := manager.GetRiskEvents(c.UserContext(), params.Limit)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(events)
	}
}

func ResolveRiskEvent(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{"admin.risk_event.invalid_id"},
			})
		}

		event, err := manager.ResolveRiskEvent(c.UserContext(), int64(id))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(event)
	}
}
