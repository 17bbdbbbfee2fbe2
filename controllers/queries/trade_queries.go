package queries

import "github.com/zsmartex/tradecore/controllers/helpers"

type TradeFilters struct {
	Limit int `query:"limit" validate:"uint|max:1000"`
}

func (t TradeFilters) Messages() map[string]string {
	return helpers.VaildateMessage("public.trade")
}

type RiskEventFilters struct {
	Limit int `query:"limit" validate:"uint|max:1000"`
}

func (t RiskEventFilters) Messages() map[string]string {
	return helpers.VaildateMessage("admin.risk_event")
}
