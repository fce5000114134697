package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type OrderKind string

const (
	KindStop       OrderKind = "STOP"
	KindStopMarket OrderKind = "STOP_MARKET"
	KindTakeProfit OrderKind = "TAKE_PROFIT"
)

func (k OrderKind) IsStop() bool { return k == KindStop || k == KindStopMarket }

func (k OrderKind) IsTakeProfit() bool { return k == KindTakeProfit }

type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusFilled    OrderStatus = "FILLED"
)

// Terminal: ордер уже не живой. BingX пишет и CANCELED, и CANCELLED.
func (s OrderStatus) Terminal() bool {
	switch OrderStatus(strings.ToUpper(string(s))) {
	case StatusCancelled, "CANCELED", StatusFilled:
		return true
	}
	return false
}

type Order struct {
	ID        string
	Symbol    string
	Side      Side // positionSide ордера
	Kind      OrderKind
	StopPrice decimal.Decimal
	Status    OrderStatus

	// PositionID проставляет коррелятор; пусто, если позицию однозначно найти не удалось.
	PositionID string
}
