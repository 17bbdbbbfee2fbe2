package helpers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gookit/validate"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

const (
	ServerInternalError       = "server.internal_error"
	InvalidMessageBody        = "server.method.invalid_message_body"
	InvalidMessageQuery       = "server.method.invalid_message_query"
	InsufficientBalance       = "market.account.insufficient_balance"
	InvalidMarket             = "market.market.invalid_symbol"
	MarketOrderInvalidID      = "market.order.invalid_id"
	RecordNotFound            = "record.not_found"
	AuthzInvalidPermission    = "authz.invalid_permission"
	AuthzTooManyRequests      = "authz.too_many_requests"
	RiskViolationErrorMessage = "market.order.risk_violation"
)

type Errors struct {
	Errors []string `json:"errors"`
}

func (e Errors) Size() int {
	return len(e.Errors)
}

func Vaildate(payload interface{}, err_src *Errors) {
	v := validate.Struct(payload)
	if !v.Validate() {
		for _, errs := range v.Errors.All() {
			for _, err := range errs {
				err_src.Errors = append(err_src.Errors, err)
			}
		}
	}
}

func VaildateMessage(prefix string) map[string]string {
	invalid_message := prefix + ".invalid_{field}"

	return validate.MS{
		"required": prefix + ".missing_{field}",
		"uint":     invalid_message,
		"int":      invalid_message,
		"min":      invalid_message,
		"max":      invalid_message,
		"in":       invalid_message,
	}
}

// ResponseError maps an error of the trading core to its status and body.
// Unknown errors are logged and hidden behind server.internal_error.
func ResponseError(c *fiber.Ctx, err error) error {
	var validationErr *types.ValidationError
	var insufficientErr *types.InsufficientFundsError
	var violation *types.RiskViolation

	switch {
	case errors.As(err, &validationErr):
		return c.Status(422).JSON(Errors{Errors: validationErr.Errors})
	case errors.As(err, &insufficientErr):
		return c.Status(422).JSON(Errors{Errors: []string{InsufficientBalance}})
	case errors.As(err, &violation):
		reason := violation.Reason
		if len(reason) == 0 {
			reason = RiskViolationErrorMessage
		}
		return c.Status(422).JSON(Errors{Errors: []string{reason}})
	case errors.Is(err, models.ErrInvalidSymbol):
		return c.Status(422).JSON(Errors{Errors: []string{InvalidMarket}})
	case errors.Is(err, types.ErrNotFound):
		return c.Status(404).JSON(Errors{Errors: []string{RecordNotFound}})
	case errors.Is(err, types.ErrPermissionDenied):
		return c.Status(403).JSON(Errors{Errors: []string{err.Error()}})
	case errors.Is(err, types.ErrInvalidState):
		return c.Status(422).JSON(Errors{Errors: []string{err.Error()}})
	}

	config.Logger.Errorf("Request %s %s failed: %v", c.Method(), c.Path(), err)

	return c.Status(500).JSON(Errors{Errors: []string{ServerInternalError}})
}
