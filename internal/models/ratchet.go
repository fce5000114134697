package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatchetEntry: сохранённое состояние трейла одной позиции.
// Никогда не мутируется на месте: новое обновление заменяет запись целиком.
type RatchetEntry struct {
	PositionID string          `json:"positionId"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	OrderID    *string         `json:"orderId"`
	OrderKind  OrderKind       `json:"orderKind"`
	StopPrice  decimal.Decimal `json:"stopPrice"`
	MarkPrice  decimal.Decimal `json:"markPrice"`
	UpdatedAt  int64           `json:"updatedAtEpochMillis"`
}

func (e RatchetEntry) UpdatedTime() time.Time { return time.UnixMilli(e.UpdatedAt) }
