package stream

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/perpbot/gostandx/standx/types"
)

// envelope is the wire frame for every inbound stream message.
type envelope struct {
	Channel string          `json:"channel"`
	Seq     *int64          `json:"seq"`
	Data    json.RawMessage `json:"data"`
}

// orderEvent mirrors the venue's order-channel payload.
type orderEvent struct {
	Symbol       string `json:"symbol"`
	ClOrdID      string `json:"cl_ord_id"`
	Status       string `json:"status"`
	Side         string `json:"side"`
	Qty          string `json:"qty"`
	Price        string `json:"price"`
	FillAvgPrice string `json:"fill_avg_price"`
	FillQty      string `json:"fill_qty"`
}

// normalizeOrderUpdate maps an order event into the caller-facing update.
// Only filled and canceled events are forwarded; intermediate statuses are
// dropped by policy, not by omission. Filled updates report the average fill
// price, canceled updates the resting price.
func normalizeOrderUpdate(ev orderEvent) (types.OrderUpdate, bool) {
	switch types.OrderStatus(ev.Status) {
	case types.OrderStatusFilled:
		return types.OrderUpdate{
			ContractID: ev.Symbol,
			OrderID:    ev.ClOrdID,
			Status:     types.OrderStatusFilled,
			Side:       types.Side(ev.Side),
			Size:       parseDecimal(ev.Qty),
			Price:      parseDecimal(ev.FillAvgPrice),
			FilledSize: parseDecimal(ev.FillQty),
		}, true
	case types.OrderStatusCanceled:
		return types.OrderUpdate{
			ContractID: ev.Symbol,
			OrderID:    ev.ClOrdID,
			Status:     types.OrderStatusCanceled,
			Side:       types.Side(ev.Side),
			Size:       parseDecimal(ev.Qty),
			Price:      parseDecimal(ev.Price),
			FilledSize: parseDecimal(ev.FillQty),
		}, true
	default:
		return types.OrderUpdate{}, false
	}
}

// parseDecimal is lenient: missing or malformed quantities become zero, the
// same fallback the venue uses for absent fields.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
