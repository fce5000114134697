package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stoploss_tracker/internal/models"

	"github.com/bytedance/sonic"
)

const ordersPath = "/openApi/swap/v1/trade/fullOrder"

// OpenOrders: последние limit ордеров. Статусы не фильтруются,
// отсев CANCELLED/FILLED делает трекер.
func (c *Client) OpenOrders(ctx context.Context, limit int) ([]models.Order, error) {
	data, err := c.do(ctx, http.MethodGet, ordersPath, map[string]string{
		"limit": strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	var r ordersResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("OpenOrders decode: %w; body=%s", err, string(data))
	}
	if r.Code != 0 {
		return nil, fmt.Errorf("OpenOrders error: code=%d msg=%s", r.Code, r.Msg)
	}

	res := make([]models.Order, 0, len(r.Data.Orders))
	for _, d := range r.Data.Orders {
		res = append(res, models.Order{
			ID:        d.OrderID.String(),
			Symbol:    d.Symbol,
			Side:      models.ParseSide(d.PositionSide),
			Kind:      models.OrderKind(strings.ToUpper(d.Type)),
			StopPrice: d.StopPrice.Decimal(),
			Status:    models.OrderStatus(strings.ToUpper(d.Status)),
		})
	}
	return res, nil
}
