package orders

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

type CreateOrderParams struct {
	UserID   int64               `json:"-"`
	Symbol   string              `json:"symbol" form:"symbol" validate:"required|ValidateSymbol"`
	Side     string              `json:"side" form:"side" validate:"required|in:BUY,SELL"`
	Type     string              `json:"type" form:"type" validate:"required|in:MARKET,LIMIT"`
	Quantity decimal.Decimal     `json:"quantity" form:"quantity"`
	Price    decimal.NullDecimal `json:"price" form:"price"`
}

func (p CreateOrderParams) Messages() map[string]string {
	invalid_message := "market.order.invalid_{field}"

	return validate.MS{
		"required":       "market.order.missing_{field}",
		"in":             invalid_message,
		"enum":           invalid_message,
		"ValidateSymbol": invalid_message,
	}
}

func (p CreateOrderParams) ValidateSymbol(val string) bool {
	_, _, err := models.ParseSymbol(val)
	return err == nil
}

// Normalize upper-cases the enumerations and the symbol so that "buy" and
// "btc/usdt" are accepted.
func (p *CreateOrderParams) Normalize() {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	p.Side = strings.ToUpper(strings.TrimSpace(p.Side))
	p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
}

// Validate collects every shape problem of the submission. It never reads
// balances or the book.
func (p *CreateOrderParams) Validate(opts Options) *types.ValidationError {
	errs := make([]string, 0)

	v := validate.Struct(p)
	if !v.Validate() {
		for _, fieldErrs := range v.Errors.All() {
			for _, err := range fieldErrs {
				errs = append(errs, err)
			}
		}
		sort.Strings(errs)
	}

	if !p.Quantity.IsPositive() {
		errs = append(errs, "market.order.non_positive_quantity")
	} else if !models.FitsPrecision(p.Quantity, models.AmountPrecision) {
		errs = append(errs, "market.order.quantity_too_precise")
	} else {
		if opts.MinOrderSize.IsPositive() && p.Quantity.LessThan(opts.MinOrderSize) {
			errs = append(errs, "market.order.quantity_below_minimum")
		}
		if opts.MaxOrderSize.IsPositive() && p.Quantity.GreaterThan(opts.MaxOrderSize) {
			errs = append(errs, "market.order.quantity_above_maximum")
		}
	}

	switch types.OrderType(p.Type) {
	case types.TypeLimit:
		if !p.Price.Valid || !p.Price.Decimal.IsPositive() {
			errs = append(errs, "market.order.non_positive_price")
		} else if !models.FitsPrecision(p.Price.Decimal, models.AmountPrecision) {
			errs = append(errs, "market.order.price_too_precise")
		}
	case types.TypeMarket:
		if p.Price.Valid {
			errs = append(errs, "market.order.price_not_allowed")
		}
	}

	if len(errs) > 0 {
		return types.NewValidationError(errs...)
	}

	return nil
}

// BuildOrder returns the PENDING order the params describe, without any
// reservation.
func (p *CreateOrderParams) BuildOrder() *models.Order {
	order := &models.Order{
		UUID:           uuid.New(),
		UserID:         p.UserID,
		Symbol:         p.Symbol,
		Side:           types.OrderSide(p.Side),
		Type:           types.OrderType(p.Type),
		Quantity:       p.Quantity,
		FilledQuantity: decimal.Zero,
		Status:         types.StatusPending,
		Locked:         decimal.Zero,
		OriginLocked:   decimal.Zero,
	}

	if order.Type == types.TypeLimit {
		order.Price = p.Price
	}

	return order
}
