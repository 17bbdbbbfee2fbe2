package types

type OrderSide string

var (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Opposite returns the side resting orders must be on to match this side.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

type OrderType string

var (
	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

type OrderStatus string

var (
	StatusPending   OrderStatus = "PENDING"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OpenStatuses are the statuses of orders that may still rest on the book.
var OpenStatuses = []OrderStatus{StatusPending, StatusPartial}

type RiskEventType string

var (
	RiskSuspiciousActivity RiskEventType = "SUSPICIOUS_ACTIVITY"
	RiskInsufficientFunds  RiskEventType = "INSUFFICIENT_FUNDS"
	RiskTrade              RiskEventType = "TRADE"
)

type RiskSeverity string

var (
	SeverityLow      RiskSeverity = "LOW"
	SeverityMedium   RiskSeverity = "MEDIUM"
	SeverityHigh     RiskSeverity = "HIGH"
	SeverityCritical RiskSeverity = "CRITICAL"
)

type OrderBy = string

var (
	OrderByAsc  OrderBy = "asc"
	OrderByDesc OrderBy = "desc"
)
