package service

import (
	"context"
	"fmt"
	"net/http"

	"stoploss_tracker/internal/models"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const positionsPath = "/openApi/swap/v2/user/positions"

// OpenPositions: все открытые позиции аккаунта.
func (c *Client) OpenPositions(ctx context.Context) ([]models.Position, error) {
	data, err := c.do(ctx, http.MethodGet, positionsPath, nil)
	if err != nil {
		return nil, err
	}

	var r positionsResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("OpenPositions decode: %w; body=%s", err, string(data))
	}
	if r.Code != 0 {
		return nil, fmt.Errorf("OpenPositions error: code=%d msg=%s", r.Code, r.Msg)
	}

	res := make([]models.Position, 0, len(r.Data))
	for _, d := range r.Data {
		if d.PositionID == "" || d.Symbol == "" {
			c.log.Warn("skip position without id", zap.String("symbol", d.Symbol))
			continue
		}
		res = append(res, models.Position{
			ID:        d.PositionID.String(),
			Symbol:    d.Symbol,
			Side:      models.ParseSide(d.PositionSide),
			Amount:    d.PositionAmt.Decimal(),
			MarkPrice: d.MarkPrice.Decimal(),
			AvgPrice:  d.AvgPrice.Decimal(),
		})
	}
	return res, nil
}
