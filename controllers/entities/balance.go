package entities

import (
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
)

type BalanceEntity struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Locked   decimal.Decimal `json:"locked"`
}

func BalanceToEntity(balance *models.Balance) BalanceEntity {
	return BalanceEntity{
		Currency: balance.Asset,
		Balance:  balance.Available,
		Locked:   balance.Locked,
	}
}
