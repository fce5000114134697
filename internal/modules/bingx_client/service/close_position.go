package service

import (
	"context"
	"fmt"
	"net/http"

	"stoploss_tracker/internal/models"

	"github.com/bytedance/sonic"
)

const closePositionPath = "/openApi/swap/v1/trade/closePosition"

// ClosePosition закрывает позицию целиком по рынку.
func (c *Client) ClosePosition(ctx context.Context, positionID string) (models.Result, error) {
	data, err := c.do(ctx, http.MethodPost, closePositionPath, map[string]string{
		"positionId": positionID,
	})
	if err != nil {
		return models.Result{}, err
	}

	var r closePositionResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Result{Raw: data}, fmt.Errorf("ClosePosition decode: %w; body=%s", err, string(data))
	}
	return models.Result{
		Success: r.Code == 0,
		Code:    r.Code,
		Msg:     r.Msg,
		OrderID: r.Data.OrderID.String(),
		Raw:     data,
	}, nil
}
