package runner

import (
	"iter"

	"stoploss_tracker/internal/models"
)

type posKey struct {
	symbol string
	side   models.Side
}

// ActiveOrders отбрасывает CANCELLED/FILLED.
func ActiveOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.Terminal() {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Correlate проставляет ордеру positionId позиции с тем же (symbol, side).
// Если таких позиций нет или их несколько: PositionID остаётся пустым.
// Последовательность ленивая и её можно обходить повторно; исходный срез не меняется.
func Correlate(positions []models.Position, orders []models.Order) iter.Seq[models.Order] {
	index := make(map[posKey][]string, len(positions))
	for _, p := range positions {
		k := posKey{symbol: p.Symbol, side: p.Side}
		index[k] = append(index[k], p.ID)
	}

	return func(yield func(models.Order) bool) {
		for _, o := range orders {
			o.PositionID = ""
			if ids := index[posKey{symbol: o.Symbol, side: o.Side}]; len(ids) == 1 {
				o.PositionID = ids[0]
			}
			if !yield(o) {
				return
			}
		}
	}
}

// matchOrders: первый стоп и первый тейк позиции; дубли игнорируются.
func matchOrders(positionID string, orders []models.Order) (stop, takeProfit *models.Order) {
	for i := range orders {
		o := &orders[i]
		if o.PositionID == "" || o.PositionID != positionID {
			continue
		}
		switch {
		case stop == nil && o.Kind.IsStop():
			stop = o
		case takeProfit == nil && o.Kind.IsTakeProfit():
			takeProfit = o
		}
		if stop != nil && takeProfit != nil {
			break
		}
	}
	return stop, takeProfit
}
