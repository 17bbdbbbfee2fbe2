package pebblestore

import (
	"fmt"
	"strconv"

	"github.com/zsmartex/tradecore/types"
)

// Key prefixes. Numeric ids are zero padded so that lexical order is id
// order.
const (
	prefixBalance   = "bal:"
	prefixOrder     = "ord:"
	prefixUserOrder = "ord_user:"
	prefixOpenOrder = "ord_open:"
	prefixTrade     = "trd:"
	prefixSymTrade  = "trd_sym:"
	prefixUserTrade = "trd_user:"
	prefixRisk      = "risk:"
	prefixSequence  = "seq:"

	idWidth = 20
)

func padID(id int64) string {
	return fmt.Sprintf("%020d", id)
}

// balanceKey format: "bal:{user}:{asset}"
func balanceKey(userID int64, asset string) []byte {
	return []byte(prefixBalance + padID(userID) + ":" + asset)
}

// orderKey format: "ord:{id}"
func orderKey(id int64) []byte {
	return []byte(prefixOrder + padID(id))
}

// userOrderPrefix format: "ord_user:{user}:"
func userOrderPrefix(userID int64) []byte {
	return []byte(prefixUserOrder + padID(userID) + ":")
}

func userOrderKey(userID, id int64) []byte {
	return append(userOrderPrefix(userID), padID(id)...)
}

// openOrderPrefix format: "ord_open:{symbol}:{side}:"
func openOrderPrefix(symbol string, side types.OrderSide) []byte {
	return []byte(prefixOpenOrder + symbol + ":" + string(side) + ":")
}

func openOrderKey(symbol string, side types.OrderSide, id int64) []byte {
	return append(openOrderPrefix(symbol, side), padID(id)...)
}

// tradeKey format: "trd:{id}"
func tradeKey(id int64) []byte {
	return []byte(prefixTrade + padID(id))
}

// symbolTradePrefix format: "trd_sym:{symbol}:"
func symbolTradePrefix(symbol string) []byte {
	return []byte(prefixSymTrade + symbol + ":")
}

func symbolTradeKey(symbol string, id int64) []byte {
	return append(symbolTradePrefix(symbol), padID(id)...)
}

// userTradePrefix format: "trd_user:{user}:"
func userTradePrefix(userID int64) []byte {
	return []byte(prefixUserTrade + padID(userID) + ":")
}

func userTradeKey(userID, id int64) []byte {
	return append(userTradePrefix(userID), padID(id)...)
}

// riskKey format: "risk:{id}"
func riskKey(id int64) []byte {
	return []byte(prefixRisk + padID(id))
}

func sequenceKey(name string) []byte {
	return []byte(prefixSequence + name)
}

// idFromKey extracts the trailing padded id of an index key.
func idFromKey(key []byte) (int64, error) {
	if len(key) < idWidth {
		return 0, fmt.Errorf("invalid index key: %q", key)
	}

	return strconv.ParseInt(string(key[len(key)-idWidth:]), 10, 64)
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
