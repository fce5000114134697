package runner

import (
	"testing"

	"stoploss_tracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pos(side models.Side, avg, mark string) models.Position {
	return models.Position{
		ID:        "pos-1",
		Symbol:    "BTC-USDT",
		Side:      side,
		Amount:    d("0.5"),
		AvgPrice:  d(avg),
		MarkPrice: d(mark),
	}
}

func stopOrder(price string) *models.Order {
	return &models.Order{ID: "so-1", Symbol: "BTC-USDT", Kind: models.KindStopMarket, StopPrice: d(price), PositionID: "pos-1"}
}

func tpOrder(price string) *models.Order {
	return &models.Order{ID: "tp-1", Symbol: "BTC-USDT", Kind: models.KindTakeProfit, StopPrice: d(price), PositionID: "pos-1"}
}

func priorEntry(mark string) *models.RatchetEntry {
	return &models.RatchetEntry{PositionID: "pos-1", Symbol: "BTC-USDT", MarkPrice: d(mark), StopPrice: d(mark)}
}

func TestDecideScenarios(t *testing.T) {
	tests := []struct {
		name      string
		formula   RatchetFormula
		pos       models.Position
		stop      *models.Order
		tp        *models.Order
		prior     *models.RatchetEntry
		wantKind  ActionKind
		wantStop  string
		wantOrder *models.Order
	}{
		{
			name:     "long below threshold closes",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "70"),
			stop:     stopOrder("90"),
			wantKind: ClosePosition,
		},
		{
			name:     "long first favorable move weighted",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "120"),
			tp:       tpOrder("130"),
			wantKind: SetStopLoss,
			wantStop: "118.5",
		},
		{
			name:     "long first favorable move flat",
			formula:  FlatPercent,
			pos:      pos(models.SideLong, "100", "120"),
			tp:       tpOrder("130"),
			wantKind: SetStopLoss,
			wantStop: "102",
		},
		{
			name:     "short no orders weighted uses synthesized take profit",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideShort, "100", "80"),
			wantKind: SetStopLoss,
			// 80 + (80 - 101.5) * 0.15
			wantStop: "76.775",
		},
		{
			name:     "short no orders flat",
			formula:  FlatPercent,
			pos:      pos(models.SideShort, "100", "80"),
			wantKind: SetStopLoss,
			wantStop: "92",
		},
		{
			name:     "long less favorable than saved mark",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "105"),
			prior:    priorEntry("110"),
			wantKind: NoAction,
		},
		{
			name:     "long equal to saved mark",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "110"),
			prior:    priorEntry("110"),
			wantKind: NoAction,
		},
		{
			name:      "long beyond saved mark references stop order",
			formula:   TakeProfitWeighted,
			pos:       pos(models.SideLong, "100", "115"),
			stop:      stopOrder("99"),
			tp:        tpOrder("135"),
			prior:     priorEntry("110"),
			wantKind:  SetStopLoss,
			wantStop:  "112",
			wantOrder: stopOrder("99"),
		},
		{
			name:     "long slightly under avg above threshold",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "99.9"),
			wantKind: NoAction,
		},
		{
			name:     "long under default threshold closes",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "99.6"),
			wantKind: ClosePosition,
		},
		{
			name:     "short above avg but under summed threshold",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideShort, "100", "120"),
			stop:     stopOrder("110"),
			wantKind: NoAction,
		},
		{
			name:     "short above summed threshold closes",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideShort, "100", "143"),
			stop:     stopOrder("110"),
			wantKind: ClosePosition,
		},
		{
			name:     "short less favorable than saved mark",
			formula:  FlatPercent,
			pos:      pos(models.SideShort, "100", "85"),
			prior:    priorEntry("80"),
			wantKind: NoAction,
		},
		{
			name:     "flat mark equals avg",
			formula:  TakeProfitWeighted,
			pos:      pos(models.SideLong, "100", "100"),
			wantKind: NoAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewEngine(tt.formula).Decide(tt.pos, tt.stop, tt.tp, tt.prior)
			require.NoError(t, err)
			require.Equal(t, tt.wantKind, a.Kind, a.Reason)
			if tt.wantKind != SetStopLoss {
				return
			}
			assert.True(t, d(tt.wantStop).Equal(a.NewStop), "newStop=%s want %s", a.NewStop, tt.wantStop)
			assert.Equal(t, tt.wantOrder, a.StopOrder)
		})
	}
}

func TestDecideUnknownSide(t *testing.T) {
	a, err := NewEngine(TakeProfitWeighted).Decide(pos("BOTH", "100", "120"), nil, nil, nil)
	require.ErrorIs(t, err, ErrUnknownSide)
	assert.Equal(t, NoAction, a.Kind)
}

func TestNewEngineDefaultsToWeighted(t *testing.T) {
	assert.Equal(t, TakeProfitWeighted, NewEngine("").Formula)
}

func TestDecideIsIdempotentOncePersisted(t *testing.T) {
	for _, f := range []RatchetFormula{TakeProfitWeighted, FlatPercent} {
		t.Run(string(f), func(t *testing.T) {
			e := NewEngine(f)
			p := pos(models.SideLong, "100", "120")
			tp := tpOrder("130")

			first, err := e.Decide(p, nil, tp, nil)
			require.NoError(t, err)
			require.Equal(t, SetStopLoss, first.Kind)

			saved := &models.RatchetEntry{PositionID: p.ID, StopPrice: first.NewStop, MarkPrice: p.MarkPrice}
			second, err := e.Decide(p, nil, tp, saved)
			require.NoError(t, err)
			assert.Equal(t, NoAction, second.Kind)
		})
	}
}

// Каждый следующий SetStopLoss подтягивает стоп только в сторону прибыли.
func TestDecideRatchetIsMonotonic(t *testing.T) {
	cases := []struct {
		side  models.Side
		marks []string
		tp    string
	}{
		{side: models.SideLong, marks: []string{"101", "103", "102", "107", "107", "111.5", "109", "125"}, tp: "130"},
		{side: models.SideShort, marks: []string{"99", "97", "98", "93", "93", "88.25", "90", "75"}, tp: "60"},
	}

	for _, f := range []RatchetFormula{TakeProfitWeighted, FlatPercent} {
		for _, c := range cases {
			t.Run(string(f)+"/"+string(c.side), func(t *testing.T) {
				e := NewEngine(f)
				var prior *models.RatchetEntry
				updates := 0

				for _, m := range c.marks {
					p := pos(c.side, "100", m)
					a, err := e.Decide(p, nil, tpOrder(c.tp), prior)
					require.NoError(t, err)
					require.NotEqual(t, ClosePosition, a.Kind)
					if a.Kind != SetStopLoss {
						continue
					}
					updates++
					if prior != nil {
						if c.side == models.SideLong {
							assert.True(t, a.NewStop.GreaterThan(prior.StopPrice), "stop %s after %s", a.NewStop, prior.StopPrice)
						} else {
							assert.True(t, a.NewStop.LessThan(prior.StopPrice), "stop %s after %s", a.NewStop, prior.StopPrice)
						}
					}
					prior = &models.RatchetEntry{PositionID: p.ID, StopPrice: a.NewStop, MarkPrice: p.MarkPrice}
				}
				assert.Equal(t, 5, updates)
			})
		}
	}
}
