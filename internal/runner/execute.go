package runner

import (
	"context"

	"stoploss_tracker/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway: подписанный REST-клиент биржи.
type Gateway interface {
	OpenPositions(ctx context.Context) ([]models.Position, error)
	OpenOrders(ctx context.Context, limit int) ([]models.Order, error)
	ClosePosition(ctx context.Context, positionID string) (models.Result, error)
	CreateStopOrder(ctx context.Context, symbol string, side models.Side, amount, stopPrice decimal.Decimal) (models.Result, error)
	CancelAndReplaceStop(ctx context.Context, symbol string, side models.Side, amount, stopPrice decimal.Decimal, cancelOrderID string) (models.Result, error)
}

// RatchetStore: in-memory коллекция записей трейла, принадлежит трекеру на время цикла.
type RatchetStore interface {
	Get(positionID string) (models.RatchetEntry, bool)
	Upsert(e models.RatchetEntry)
	Remove(positionID string)
	Len() int
	Flush(ctx context.Context) error
}

// closePosition: запись трейла удаляется до вызова биржи и не восстанавливается при отказе.
func (t *Tracker) closePosition(ctx context.Context, p models.Position, a Action) {
	t.store.Remove(p.ID)

	log := t.log.With(
		zap.String("positionId", p.ID),
		zap.String("symbol", p.Symbol),
		zap.String("side", string(p.Side)),
	)
	log.Info("closing position", zap.String("reason", a.Reason))

	res, err := t.gw.ClosePosition(ctx, p.ID)
	switch {
	case err != nil:
		t.metrics.actionFailed(ClosePosition)
		log.Error("close position failed", zap.Error(err))
		t.notify(ctx, "❗️ %s %s: ошибка закрытия позиции: %v", p.Symbol, p.Side, err)
	case !res.Success:
		t.metrics.actionFailed(ClosePosition)
		log.Error("close position rejected", zap.Int("code", res.Code), zap.String("msg", res.Msg), zap.ByteString("raw", res.Raw))
		t.notify(ctx, "❗️ %s %s: биржа отклонила закрытие (code=%d %s)", p.Symbol, p.Side, res.Code, res.Msg)
	default:
		t.metrics.actionDone(ClosePosition)
		t.notify(ctx, "🛑 %s %s закрыта: mark=%s avg=%s", p.Symbol, p.Side, p.MarkPrice, p.AvgPrice)
	}
}

// setStopLoss двигает стоп. Запись трейла пишется с целевой ценой даже при отказе биржи:
// следующий цикл перечитает ордера и увидит реальное состояние.
func (t *Tracker) setStopLoss(ctx context.Context, p models.Position, a Action) {
	log := t.log.With(
		zap.String("positionId", p.ID),
		zap.String("symbol", p.Symbol),
		zap.String("side", string(p.Side)),
		zap.String("newStop", a.NewStop.String()),
	)

	var (
		res models.Result
		err error
		op  = "create"
	)
	if a.StopOrder != nil && a.StopOrder.ID != "" {
		op = "cancelReplace"
		res, err = t.gw.CancelAndReplaceStop(ctx, p.Symbol, p.Side, p.Qty(), a.NewStop, a.StopOrder.ID)
	} else {
		res, err = t.gw.CreateStopOrder(ctx, p.Symbol, p.Side, p.Qty(), a.NewStop)
	}

	ok := err == nil && res.Success
	switch {
	case err != nil:
		log.Error("stop order call failed", zap.String("op", op), zap.Error(err))
	case !res.Success:
		log.Error("stop order rejected", zap.String("op", op), zap.Int("code", res.Code), zap.String("msg", res.Msg), zap.ByteString("raw", res.Raw))
	default:
		log.Info("stop moved", zap.String("op", op), zap.String("orderId", res.OrderID))
	}

	t.store.Upsert(models.RatchetEntry{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Side:       p.Side,
		OrderID:    referencedOrderID(ok, res, a.StopOrder),
		OrderKind:  models.KindStopMarket,
		StopPrice:  a.NewStop,
		MarkPrice:  p.MarkPrice,
		UpdatedAt:  t.now().UnixMilli(),
	})

	if !ok {
		t.metrics.actionFailed(SetStopLoss)
		t.notify(ctx, "❗️ %s %s: не удалось перенести стоп на %s", p.Symbol, p.Side, a.NewStop)
		return
	}
	t.metrics.actionDone(SetStopLoss)
	t.notify(ctx, "🔒 %s %s: стоп → %s (mark=%s)", p.Symbol, p.Side, a.NewStop, p.MarkPrice)
}

// referencedOrderID: id от биржи, иначе id прежнего стопа, иначе nil.
func referencedOrderID(ok bool, res models.Result, prev *models.Order) *string {
	if ok && res.OrderID != "" {
		id := res.OrderID
		return &id
	}
	if prev != nil && prev.ID != "" {
		id := prev.ID
		return &id
	}
	return nil
}
