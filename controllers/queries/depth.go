package queries

import "github.com/zsmartex/tradecore/controllers/helpers"

type DepthQuery struct {
	Limit int `query:"limit" validate:"uint|max:1000"`
}

func (t DepthQuery) Messages() map[string]string {
	return helpers.VaildateMessage("public.market_depth")
}
