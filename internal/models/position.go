package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// ParseSide нормализует positionSide биржи ("long", "LONG", " Short ").
// Неизвестное значение возвращается как есть: решение по нему принимает движок.
func ParseSide(raw string) Side {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "LONG":
		return SideLong
	case "SHORT":
		return SideShort
	}
	return Side(s)
}

func (s Side) Valid() bool { return s == SideLong || s == SideShort }

// CloseSide: сторона ордера, который закрывает позицию.
func (s Side) CloseSide() string {
	if s == SideShort {
		return "BUY"
	}
	return "SELL"
}

// Position: снимок открытой позиции на один цикл.
type Position struct {
	ID        string
	Symbol    string
	Side      Side
	Amount    decimal.Decimal // со знаком, как отдаёт биржа
	MarkPrice decimal.Decimal
	AvgPrice  decimal.Decimal
}

// Qty: объём для защитного ордера.
func (p Position) Qty() decimal.Decimal { return p.Amount.Abs() }
