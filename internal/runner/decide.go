package runner

import (
	"errors"
	"fmt"

	"stoploss_tracker/internal/models"

	"github.com/shopspring/decimal"
)

type ActionKind int

const (
	NoAction ActionKind = iota
	ClosePosition
	SetStopLoss
)

func (k ActionKind) String() string {
	switch k {
	case ClosePosition:
		return "close"
	case SetStopLoss:
		return "set_stop_loss"
	}
	return "none"
}

type Action struct {
	Kind ActionKind
	// NewStop и StopOrder заполнены только для SetStopLoss.
	NewStop   decimal.Decimal
	StopOrder *models.Order
	Reason    string
}

type RatchetFormula string

const (
	TakeProfitWeighted RatchetFormula = "takeProfitWeighted"
	FlatPercent        RatchetFormula = "flatPercent"
)

var ErrUnknownSide = errors.New("unknown position side")

var (
	one = decimal.NewFromInt(1)

	// дефолтный буфер стопа, если стоп-ордера нет; на биржу не отправляется
	defaultStopBuffer = decimal.RequireFromString("0.015")
	// если тейка нет, считаем его на 1.5% выше входа для обеих сторон
	defaultTakeProfitRate = decimal.RequireFromString("1.015")

	closeThresholdFrac = decimal.RequireFromString("0.2")
	ratchetFrac        = decimal.RequireFromString("0.15")
)

// shortCloseAvgSign задаёт, как для SHORT считается diff: stop + sign*avg.
// 1 складывает уровни (так работало всегда), -1 даёт зеркальную LONG формулу.
const shortCloseAvgSign = 1

// Engine решает, что делать с одной позицией. Без побочных эффектов.
type Engine struct {
	Formula RatchetFormula
}

func NewEngine(formula RatchetFormula) Engine {
	if formula == "" {
		formula = TakeProfitWeighted
	}
	return Engine{Formula: formula}
}

// Decide: закрыть позицию, подтянуть стоп или ничего не делать.
// stop и takeProfit: ордера позиции (могут быть nil), prior: сохранённое состояние трейла.
func (e Engine) Decide(
	p models.Position,
	stop *models.Order,
	takeProfit *models.Order,
	prior *models.RatchetEntry,
) (Action, error) {
	if !p.Side.Valid() {
		return Action{Kind: NoAction}, fmt.Errorf("%w %q for position %s", ErrUnknownSide, p.Side, p.ID)
	}

	stopPrice := effectiveStop(p, stop)
	tpPrice := p.AvgPrice.Mul(defaultTakeProfitRate)
	if takeProfit != nil {
		tpPrice = takeProfit.StopPrice
	}

	if a, ok := closeTest(p, stopPrice); ok {
		return a, nil
	}

	mark, avg := p.MarkPrice, p.AvgPrice
	favorable := mark.GreaterThan(avg)
	if p.Side == models.SideShort {
		favorable = mark.LessThan(avg)
	}
	if !favorable {
		return Action{Kind: NoAction, Reason: "not moving favorably"}, nil
	}

	if prior != nil {
		improved := mark.GreaterThan(prior.MarkPrice)
		if p.Side == models.SideShort {
			improved = mark.LessThan(prior.MarkPrice)
		}
		if !improved {
			return Action{
				Kind:   NoAction,
				Reason: fmt.Sprintf("markPrice %s not beyond saved %s", mark, prior.MarkPrice),
			}, nil
		}
	}

	return Action{
		Kind:      SetStopLoss,
		NewStop:   e.newStop(p.Side, mark, tpPrice),
		StopOrder: stop,
		Reason:    "ratchet",
	}, nil
}

func effectiveStop(p models.Position, stop *models.Order) decimal.Decimal {
	if stop != nil {
		return stop.StopPrice
	}
	if p.Side == models.SideShort {
		return p.AvgPrice.Mul(one.Add(defaultStopBuffer))
	}
	return p.AvgPrice.Mul(one.Sub(defaultStopBuffer))
}

func closeTest(p models.Position, stopPrice decimal.Decimal) (Action, bool) {
	mark, avg := p.MarkPrice, p.AvgPrice

	if p.Side == models.SideLong {
		diff := avg.Sub(stopPrice)
		threshold := avg.Sub(diff.Mul(closeThresholdFrac))
		if mark.LessThan(avg) && mark.LessThan(threshold) {
			return Action{
				Kind:   ClosePosition,
				Reason: fmt.Sprintf("LONG markPrice %s < avgPrice %s and < threshold %s", mark, avg, threshold),
			}, true
		}
		return Action{}, false
	}

	diff := stopPrice.Add(avg.Mul(decimal.NewFromInt(shortCloseAvgSign)))
	threshold := avg.Add(diff.Mul(closeThresholdFrac))
	if mark.GreaterThan(avg) && mark.GreaterThan(threshold) {
		return Action{
			Kind:   ClosePosition,
			Reason: fmt.Sprintf("SHORT markPrice %s > avgPrice %s and > threshold %s", mark, avg, threshold),
		}, true
	}
	return Action{}, false
}

func (e Engine) newStop(side models.Side, mark, tpPrice decimal.Decimal) decimal.Decimal {
	if e.Formula == FlatPercent {
		if side == models.SideShort {
			return mark.Mul(one.Add(ratchetFrac))
		}
		return mark.Mul(one.Sub(ratchetFrac))
	}

	if side == models.SideShort {
		potentialProfit := mark.Sub(tpPrice)
		return mark.Add(potentialProfit.Mul(ratchetFrac))
	}
	potentialProfit := tpPrice.Sub(mark)
	return mark.Sub(potentialProfit.Mul(ratchetFrac))
}
