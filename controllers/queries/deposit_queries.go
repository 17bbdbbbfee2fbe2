package queries

import (
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/controllers/helpers"
)

type DepositParams struct {
	UserID   int64           `json:"uid" form:"uid" validate:"required|min:1"`
	Currency string          `json:"currency" form:"currency" validate:"required"`
	Amount   decimal.Decimal `json:"amount" form:"amount"`
}

func (t DepositParams) Messages() map[string]string {
	return helpers.VaildateMessage("admin.deposit")
}
