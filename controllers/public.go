package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers/entities"
	"github.com/zsmartex/tradecore/controllers/helpers"
	"github.com/zsmartex/tradecore/controllers/queries"
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/orders"
)

// marketSymbol joins the :base and :quote route params into BASE/QUOTE.
func marketSymbol(c *fiber.Ctx) string {
	return strings.ToUpper(c.Params("base")) + "/" + strings.ToUpper(c.Params("quote"))
}

func GetTimestamp(c *fiber.Ctx) error {
	return c.Status(200).JSON(time.Now())
}

func GetDepth(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := new(helpers.Errors)
		params := new(queries.DepthQuery)
		if err := c.QueryParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageQuery},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		book, err := manager.GetOrderBook(c.UserContext(), marketSymbol(c))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		if params.Limit > 0 && params.Limit < matching.DefaultDepthLimit {
			if len(book.Bids) > params.Limit {
				book.Bids = book.Bids[:params.Limit]
			}
			if len(book.Asks) > params.Limit {
				book.Asks = book.Asks[:params.Limit]
			}
		}

		return c.Status(200).JSON(book)
	}
}

func GetTrades(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := new(helpers.Errors)
		params := new(queries.TradeFilters)
		if err := c.QueryParser(params); err != nil {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{helpers.InvalidMessageQuery},
			})
		}

		helpers.Vaildate(params, errors)
		if errors.Size() > 0 {
			return c.Status(422).JSON(errors)
		}

		trades, err := manager.GetTrades(c.UserContext(), marketSymbol(c), params.Limit)
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(entities.TradesToEntities(trades))
	}
}

func GetStats(manager *orders.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := manager.GetStats(c.UserContext(), marketSymbol(c))
		if err != nil {
			return helpers.ResponseError(c, err)
		}

		return c.Status(200).JSON(stats)
	}
}
