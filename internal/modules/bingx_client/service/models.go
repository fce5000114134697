package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numStr принимает число и строкой, и голым числом: BingX отдаёт по-разному
// в разных эндпоинтах. orderId не проходит через float, поэтому не теряет разряды.
type numStr string

func (n *numStr) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*n = ""
	case len(s) >= 2 && s[0] == '"':
		uq, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		*n = numStr(strings.TrimSpace(uq))
	default:
		*n = numStr(s)
	}
	return nil
}

func (n numStr) String() string { return string(n) }

// Decimal: пустое или битое значение превращается в ноль.
func (n numStr) Decimal() decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (n numStr) True() bool { return strings.EqualFold(string(n), "true") }

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type positionDTO struct {
	Symbol       string `json:"symbol"`
	PositionID   numStr `json:"positionId"`
	PositionSide string `json:"positionSide"`
	PositionAmt  numStr `json:"positionAmt"`
	AvgPrice     numStr `json:"avgPrice"`
	MarkPrice    numStr `json:"markPrice"`
}

type positionsResponse struct {
	envelope
	Data []positionDTO `json:"data"`
}

type orderDTO struct {
	Symbol       string `json:"symbol"`
	OrderID      numStr `json:"orderId"`
	PositionSide string `json:"positionSide"`
	Type         string `json:"type"`
	StopPrice    numStr `json:"stopPrice"`
	Status       string `json:"status"`
}

type ordersResponse struct {
	envelope
	Data struct {
		Orders []orderDTO `json:"orders"`
	} `json:"data"`
}

type closePositionResponse struct {
	envelope
	Data struct {
		OrderID    numStr `json:"orderId"`
		PositionID numStr `json:"positionId"`
	} `json:"data"`
}

type createOrderResponse struct {
	envelope
	Data struct {
		Order struct {
			OrderID numStr `json:"orderId"`
		} `json:"order"`
	} `json:"data"`
}

type cancelReplaceResponse struct {
	envelope
	Data struct {
		CancelResult     numStr `json:"cancelResult"`
		CancelMsg        string `json:"cancelMsg"`
		ReplaceResult    numStr `json:"replaceResult"`
		ReplaceMsg       string `json:"replaceMsg"`
		NewOrderResponse struct {
			OrderID numStr `json:"orderId"`
		} `json:"newOrderResponse"`
	} `json:"data"`
}
