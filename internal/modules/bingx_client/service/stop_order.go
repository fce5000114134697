package service

import (
	"context"
	"fmt"
	"net/http"

	"stoploss_tracker/internal/models"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	createOrderPath   = "/openApi/swap/v2/trade/order"
	cancelReplacePath = "/openApi/swap/v1/trade/cancelReplace"
)

// CreateStopOrder ставит новый STOP_MARKET, закрывающий позицию side.
func (c *Client) CreateStopOrder(
	ctx context.Context,
	symbol string,
	side models.Side,
	amount decimal.Decimal,
	stopPrice decimal.Decimal,
) (models.Result, error) {
	if !side.Valid() {
		return models.Result{}, fmt.Errorf("CreateStopOrder: unsupported positionSide=%q", side)
	}
	if !amount.IsPositive() || !stopPrice.IsPositive() {
		return models.Result{}, fmt.Errorf("CreateStopOrder: amount=%s stopPrice=%s must be > 0", amount, stopPrice)
	}

	data, err := c.do(ctx, http.MethodPost, createOrderPath, map[string]string{
		"symbol":        symbol,
		"side":          side.CloseSide(),
		"positionSide":  string(side),
		"type":          string(models.KindStopMarket),
		"quantity":      amount.String(),
		"stopPrice":     stopPrice.String(),
		"clientOrderID": uuid.NewString(),
	})
	if err != nil {
		return models.Result{}, err
	}

	var r createOrderResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Result{Raw: data}, fmt.Errorf("CreateStopOrder decode: %w; body=%s", err, string(data))
	}
	return models.Result{
		Success: r.Code == 0 && r.Data.Order.OrderID != "",
		Code:    r.Code,
		Msg:     r.Msg,
		OrderID: r.Data.Order.OrderID.String(),
		Raw:     data,
	}, nil
}

// CancelAndReplaceStop снимает cancelOrderID и ставит новый STOP_MARKET.
// STOP_ON_FAILURE: если отмена не прошла, замена не выставляется.
func (c *Client) CancelAndReplaceStop(
	ctx context.Context,
	symbol string,
	side models.Side,
	amount decimal.Decimal,
	stopPrice decimal.Decimal,
	cancelOrderID string,
) (models.Result, error) {
	if !side.Valid() {
		return models.Result{}, fmt.Errorf("CancelAndReplaceStop: unsupported positionSide=%q", side)
	}
	if cancelOrderID == "" {
		return models.Result{}, fmt.Errorf("CancelAndReplaceStop: empty cancelOrderId")
	}
	if !amount.IsPositive() || !stopPrice.IsPositive() {
		return models.Result{}, fmt.Errorf("CancelAndReplaceStop: amount=%s stopPrice=%s must be > 0", amount, stopPrice)
	}

	data, err := c.do(ctx, http.MethodPost, cancelReplacePath, map[string]string{
		"cancelReplaceMode":  "STOP_ON_FAILURE",
		"cancelOrderId":      cancelOrderID,
		"cancelRestrictions": "ONLY_NEW",
		"symbol":             symbol,
		"side":               side.CloseSide(),
		"positionSide":       string(side),
		"type":               string(models.KindStopMarket),
		"quantity":           amount.String(),
		"stopPrice":          stopPrice.String(),
	})
	if err != nil {
		return models.Result{}, err
	}

	var r cancelReplaceResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Result{Raw: data}, fmt.Errorf("CancelAndReplaceStop decode: %w; body=%s", err, string(data))
	}

	res := models.Result{
		Success: r.Code == 0 && r.Data.ReplaceResult.True(),
		Code:    r.Code,
		Msg:     r.Msg,
		OrderID: r.Data.NewOrderResponse.OrderID.String(),
		Raw:     data,
	}
	if r.Code == 0 && !res.Success {
		res.Msg = fmt.Sprintf("cancel=%s %s; replace=%s %s",
			r.Data.CancelResult, r.Data.CancelMsg, r.Data.ReplaceResult, r.Data.ReplaceMsg)
	}
	return res, nil
}
