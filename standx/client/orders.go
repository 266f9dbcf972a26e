package client

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/perpbot/gostandx/pkg/retry"
	"github.com/perpbot/gostandx/standx/types"
)

// orderPayload is the wire shape for new_order. Field order is fixed so the
// marshaled bytes match what gets signed and transmitted.
type orderPayload struct {
	Symbol      string            `json:"symbol"`
	Side        types.Side        `json:"side"`
	OrderType   types.OrderType   `json:"order_type"`
	Qty         string            `json:"qty"`
	Price       string            `json:"price,omitempty"`
	TimeInForce types.TimeInForce `json:"time_in_force"`
	ReduceOnly  bool              `json:"reduce_only"`
}

type orderAck struct {
	ClOrdID string `json:"cl_ord_id"`
	Message string `json:"message"`
}

// PlaceOpenOrder submits a market order with immediate-or-cancel semantics.
// A successful result means the venue accepted the order for asynchronous
// processing; the reported status stays pending until the stream says
// otherwise.
func (c *Client) PlaceOpenOrder(ctx context.Context, contractID string, quantity decimal.Decimal, direction types.Side) types.OrderResult {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (types.OrderResult, error) {
		return c.submitOrder(ctx, orderPayload{
			Symbol:      contractID,
			Side:        direction,
			OrderType:   types.OrderTypeMarket,
			Qty:         quantity.String(),
			TimeInForce: types.TimeInForceIOC,
		}, quantity, decimal.Zero)
	}, failedOrder)
}

// PlaceCloseOrder submits a reduce-only limit order at good-till-cancel. The
// price is rounded to the instrument's tick size before transmission.
func (c *Client) PlaceCloseOrder(ctx context.Context, contractID string, quantity, price decimal.Decimal, side types.Side) types.OrderResult {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (types.OrderResult, error) {
		tick, err := c.contractTick(ctx)
		if err != nil {
			return types.OrderResult{}, err
		}
		rounded := roundToTick(price, tick)

		return c.submitOrder(ctx, orderPayload{
			Symbol:      contractID,
			Side:        side,
			OrderType:   types.OrderTypeLimit,
			Qty:         quantity.String(),
			Price:       formatTick(rounded, tick),
			TimeInForce: types.TimeInForceGTC,
			ReduceOnly:  true,
		}, quantity, rounded)
	}, failedOrder)
}

// CancelOrder cancels by client order id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) types.OrderResult {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (types.OrderResult, error) {
		body, err := json.Marshal(map[string]string{"cl_ord_id": orderID})
		if err != nil {
			return types.OrderResult{}, err
		}

		resp, ack, err := c.sendOrderRequest(ctx, endpointCancelOrder, string(body))
		if err != nil {
			return types.OrderResult{}, err
		}
		if !resp.IsSuccess() {
			return types.OrderResult{
				Success:      false,
				ErrorMessage: rejectionMessage(ack, "order cancellation failed"),
			}, nil
		}
		return types.OrderResult{
			Success: true,
			OrderID: orderID,
			Status:  types.OrderStatusCanceled,
		}, nil
	}, failedOrder)
}

// submitOrder signs and posts one new_order payload. A non-2xx response is a
// business rejection encoded in the result; transport and authorization
// failures surface as errors for the retry policy.
func (c *Client) submitOrder(ctx context.Context, p orderPayload, size, price decimal.Decimal) (types.OrderResult, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return types.OrderResult{}, err
	}

	resp, ack, err := c.sendOrderRequest(ctx, endpointNewOrder, string(body))
	if err != nil {
		return types.OrderResult{}, err
	}
	if !resp.IsSuccess() {
		log.Warnf("order rejected (http %d): %s", resp.StatusCode(), resp.Body())
		return types.OrderResult{
			Success:      false,
			ErrorMessage: rejectionMessage(ack, "order placement failed"),
		}, nil
	}

	return types.OrderResult{
		Success: true,
		OrderID: ack.ClOrdID,
		Side:    p.Side,
		Size:    size,
		Price:   price,
		Status:  types.OrderStatusPending,
	}, nil
}

// sendOrderRequest authenticates, signs the exact payload bytes and performs
// the POST. A 401-class response invalidates the cached token before the
// error is handed to the retry policy.
func (c *Client) sendOrderRequest(ctx context.Context, endpoint, payload string) (resp *resty.Response, ack orderAck, err error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, ack, err
	}

	resp, err = c.http.postSigned(ctx, endpoint, payload, token, c.signer.Sign(payload))
	if err != nil {
		return nil, ack, err
	}
	if isAuthStatus(resp.StatusCode()) {
		c.auth.Invalidate(token)
		return nil, ack, errors.Errorf("authorization rejected (http %d)", resp.StatusCode())
	}

	// Tolerate empty or non-JSON bodies; the ack stays zero.
	_ = json.Unmarshal(resp.Body(), &ack)
	return resp, ack, nil
}

func rejectionMessage(ack orderAck, fallback string) string {
	if ack.Message != "" {
		return ack.Message
	}
	return fallback
}

func failedOrder(err error) types.OrderResult {
	msg := "retry budget exhausted"
	if err != nil {
		msg = err.Error()
	}
	return types.OrderResult{Success: false, ErrorMessage: msg}
}

// roundToTick snaps price to the nearest multiple of tick.
func roundToTick(price, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return price
	}
	return price.Div(tick).Round(0).Mul(tick)
}

// formatTick renders a tick-aligned price with the tick's decimal places, so
// 100 at tick 0.01 transmits as "100.00".
func formatTick(price, tick decimal.Decimal) string {
	if tick.Exponent() < 0 {
		return price.StringFixed(-tick.Exponent())
	}
	return price.String()
}
