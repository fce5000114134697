package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stoploss_tracker/internal/models"
	"stoploss_tracker/internal/modules/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testKey    = "test_api_key"
	testSecret = "test_secret_key"
)

// mockBingxServer проверяет подпись каждого запроса и отдаёт ответ по пути.
func mockBingxServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.Header.Get("X-BX-APIKEY"))

		raw := r.URL.RawQuery
		i := strings.LastIndex(raw, "&signature=")
		if i <= 0 {
			t.Errorf("signature missing: %s", raw)
			http.Error(w, "no signature", http.StatusBadRequest)
			return
		}
		h := hmac.New(sha256.New, []byte(testSecret))
		h.Write([]byte(raw[:i]))
		assert.Equal(t, hex.EncodeToString(h.Sum(nil)), raw[i+len("&signature="):])

		hf, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		hf(w, r)
	}))
}

func newTestClient(url string) *Client {
	cfg := &config.Config{}
	cfg.Exchange.BaseURL = url
	cfg.Exchange.APIKey = testKey
	cfg.Exchange.APISecret = testSecret
	c := NewClient(cfg, zap.NewNop())
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestParseParam(t *testing.T) {
	c := newTestClient("http://localhost")

	assert.Equal(t, "timestamp=1700000000000", c.parseParam(nil))
	assert.Equal(t,
		"limit=30&symbol=BTC-USDT&timestamp=1700000000000",
		c.parseParam(map[string]string{"symbol": "BTC-USDT", "limit": "30", "timestamp": "1"}),
	)
}

func TestOpenPositions(t *testing.T) {
	srv := mockBingxServer(t, map[string]http.HandlerFunc{
		positionsPath: reply(`{"code":0,"msg":"","data":[
			{"symbol":"BTC-USDT","positionId":"1735012345678901234","positionSide":"LONG","positionAmt":"0.5","avgPrice":"100","markPrice":"120.5"},
			{"symbol":"ETH-USDT","positionId":1735012345678901235,"positionSide":"short","positionAmt":-2,"avgPrice":"2000.1","markPrice":""},
			{"symbol":"","positionId":"","positionSide":"LONG"}
		]}`),
	})
	defer srv.Close()

	positions, err := newTestClient(srv.URL).OpenPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, "1735012345678901234", positions[0].ID)
	assert.Equal(t, models.SideLong, positions[0].Side)
	assert.True(t, decimal.RequireFromString("120.5").Equal(positions[0].MarkPrice))

	assert.Equal(t, "1735012345678901235", positions[1].ID)
	assert.Equal(t, models.SideShort, positions[1].Side)
	assert.True(t, decimal.NewFromInt(2).Equal(positions[1].Qty()))
	assert.True(t, positions[1].MarkPrice.IsZero())
}

func TestOpenPositionsErrors(t *testing.T) {
	t.Run("exchange code", func(t *testing.T) {
		srv := mockBingxServer(t, map[string]http.HandlerFunc{
			positionsPath: reply(`{"code":100001,"msg":"signature verification failed"}`),
		})
		defer srv.Close()

		_, err := newTestClient(srv.URL).OpenPositions(context.Background())
		assert.ErrorContains(t, err, "100001")
	})

	t.Run("http status", func(t *testing.T) {
		srv := mockBingxServer(t, map[string]http.HandlerFunc{
			positionsPath: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
		})
		defer srv.Close()

		_, err := newTestClient(srv.URL).OpenPositions(context.Background())
		assert.ErrorContains(t, err, "http 502")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := mockBingxServer(t, map[string]http.HandlerFunc{
			positionsPath: reply(`<html>`),
		})
		defer srv.Close()

		_, err := newTestClient(srv.URL).OpenPositions(context.Background())
		assert.ErrorContains(t, err, "decode")
	})
}

func TestOpenOrders(t *testing.T) {
	srv := mockBingxServer(t, map[string]http.HandlerFunc{
		ordersPath: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "30", r.URL.Query().Get("limit"))
			reply(`{"code":0,"data":{"orders":[
				{"symbol":"BTC-USDT","orderId":1809841379603398656,"positionSide":"LONG","type":"STOP_MARKET","stopPrice":"90","status":"NEW"},
				{"symbol":"BTC-USDT","orderId":1809841379603398657,"positionSide":"LONG","type":"take_profit","stopPrice":130.5,"status":"Cancelled"}
			]}}`)(w, r)
		},
	})
	defer srv.Close()

	orders, err := newTestClient(srv.URL).OpenOrders(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "1809841379603398656", orders[0].ID)
	assert.Equal(t, models.KindStopMarket, orders[0].Kind)
	assert.True(t, decimal.NewFromInt(90).Equal(orders[0].StopPrice))
	assert.False(t, orders[0].Status.Terminal())

	assert.Equal(t, models.KindTakeProfit, orders[1].Kind)
	assert.True(t, decimal.RequireFromString("130.5").Equal(orders[1].StopPrice))
	assert.True(t, orders[1].Status.Terminal())
}

func TestClosePosition(t *testing.T) {
	srv := mockBingxServer(t, map[string]http.HandlerFunc{
		closePositionPath: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "42", r.URL.Query().Get("positionId"))
			reply(`{"code":0,"msg":"","data":{"orderId":1810,"positionId":"42"}}`)(w, r)
		},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).ClosePosition(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "1810", res.OrderID)
}

func TestClosePositionRejected(t *testing.T) {
	srv := mockBingxServer(t, map[string]http.HandlerFunc{
		closePositionPath: reply(`{"code":80012,"msg":"position not exist"}`),
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).ClosePosition(context.Background(), "42")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 80012, res.Code)
	assert.Equal(t, "position not exist", res.Msg)
}

func TestCreateStopOrder(t *testing.T) {
	srv := mockBingxServer(t, map[string]http.HandlerFunc{
		createOrderPath: func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "BTC-USDT", q.Get("symbol"))
			assert.Equal(t, "BUY", q.Get("side"))
			assert.Equal(t, "SHORT", q.Get("positionSide"))
			assert.Equal(t, "STOP_MARKET", q.Get("type"))
			assert.Equal(t, "0.5", q.Get("quantity"))
			assert.Equal(t, "83", q.Get("stopPrice"))
			assert.Len(t, q.Get("clientOrderID"), 36)
			reply(`{"code":0,"data":{"order":{"orderId":"555"}}}`)(w, r)
		},
	})
	defer srv.Close()

	res, err := newTestClient(srv.URL).CreateStopOrder(context.Background(),
		"BTC-USDT", models.SideShort, decimal.RequireFromString("-0.5").Abs(), decimal.NewFromInt(83))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "555", res.OrderID)
}

func TestCreateStopOrderValidation(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")

	_, err := c.CreateStopOrder(context.Background(), "BTC-USDT", models.Side("BOTH"), decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "positionSide")

	_, err = c.CreateStopOrder(context.Background(), "BTC-USDT", models.SideLong, decimal.Zero, decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "must be > 0")
}

func TestCancelAndReplaceStop(t *testing.T) {
	t.Run("replaced", func(t *testing.T) {
		srv := mockBingxServer(t, map[string]http.HandlerFunc{
			cancelReplacePath: func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "STOP_ON_FAILURE", q.Get("cancelReplaceMode"))
				assert.Equal(t, "ONLY_NEW", q.Get("cancelRestrictions"))
				assert.Equal(t, "777", q.Get("cancelOrderId"))
				assert.Equal(t, "SELL", q.Get("side"))
				assert.Equal(t, "LONG", q.Get("positionSide"))
				assert.Equal(t, "118.5", q.Get("stopPrice"))
				reply(`{"code":0,"data":{"cancelResult":"true","replaceResult":"true","newOrderResponse":{"orderId":778}}}`)(w, r)
			},
		})
		defer srv.Close()

		res, err := newTestClient(srv.URL).CancelAndReplaceStop(context.Background(),
			"BTC-USDT", models.SideLong, decimal.NewFromInt(1), decimal.RequireFromString("118.5"), "777")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "778", res.OrderID)
	})

	t.Run("cancel failed", func(t *testing.T) {
		srv := mockBingxServer(t, map[string]http.HandlerFunc{
			cancelReplacePath: reply(`{"code":0,"data":{"cancelResult":"false","cancelMsg":"order not exist","replaceResult":"false"}}`),
		})
		defer srv.Close()

		res, err := newTestClient(srv.URL).CancelAndReplaceStop(context.Background(),
			"BTC-USDT", models.SideLong, decimal.NewFromInt(1), decimal.RequireFromString("118.5"), "777")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Contains(t, res.Msg, "order not exist")
	})

	t.Run("no order to cancel", func(t *testing.T) {
		_, err := newTestClient("http://127.0.0.1:1").CancelAndReplaceStop(context.Background(),
			"BTC-USDT", models.SideLong, decimal.NewFromInt(1), decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})
}
