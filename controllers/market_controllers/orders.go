package market_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/auth"
	"github.com/zsmartex/tradecore/controllers/entities"
	"github.com/zsmartex/tradecore/controllers/helpers"
	"github.com/zsmartex/tradecore/orders"
)

func CreateOrder(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := auth.GetCurrentUser(c)

		payload := new(orders.CreateOrderParams)
		if err := c.BodyParser(payload); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageBody},
			})
		}

		payload.UserID = CurrentUser.UID

		order, err := manager.CreateOrder(c.UserContext(), *payload)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(201).JSON(entities.OrderToEntity(order))
	}
}

func GetOrders(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		CurrentUser := auth.GetCurrentUser(c)

		history, err := manager.GetOrderHistory(c.UserContext(), CurrentUser.UID)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(entities.OrdersToEntities(history))
	}
}

func GetOrderByID(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.MarketOrderInvalidID},
			})
		}

		CurrentUser := auth.GetCurrentUser(c)

		order, err := manager.GetOrder(c.UserContext(), CurrentUser.UID, int64(id))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(entities.OrderToEntity(order))
	}
}

func CancelOrder(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.MarketOrderInvalidID},
			})
		}

		CurrentUser := auth.GetCurrentUser(c)

		order, err := manager.CancelOrder(c.UserContext(), CurrentUser.UID, int64(id))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(201).JSON(entities.OrderToEntity(order))
	}
}
