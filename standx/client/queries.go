package client

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/perpbot/gostandx/pkg/retry"
	"github.com/perpbot/gostandx/standx/types"
)

var defaultTickSize = decimal.New(1, -2) // 0.01

type wireOrder struct {
	ClOrdID string            `json:"cl_ord_id"`
	Side    types.Side        `json:"side"`
	Qty     decimal.Decimal   `json:"qty"`
	Price   decimal.Decimal   `json:"price"`
	Status  types.OrderStatus `json:"status"`
	FillQty decimal.Decimal   `json:"fill_qty"`
}

func (o wireOrder) toOrderInfo() types.OrderInfo {
	return types.OrderInfo{
		OrderID:       o.ClOrdID,
		Side:          o.Side,
		Size:          o.Qty,
		Price:         o.Price,
		Status:        o.Status,
		FilledSize:    o.FillQty,
		RemainingSize: o.Qty.Sub(o.FillQty),
	}
}

type wirePosition struct {
	Symbol string          `json:"symbol"`
	Qty    decimal.Decimal `json:"qty"`
}

type wireSymbolInfo struct {
	Symbol   string          `json:"symbol"`
	TickSize decimal.Decimal `json:"tick_size"`
}

// GetOrderInfo looks up a single order by client order id. It returns nil
// when the venue has no matching record, and nil on retry exhaustion.
func (c *Client) GetOrderInfo(ctx context.Context, orderID string) *types.OrderInfo {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (*types.OrderInfo, error) {
		var orders []wireOrder
		if err := c.getSignedList(ctx, endpointOrders, map[string]string{"cl_ord_id": orderID}, &orders); err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			return nil, nil
		}
		info := orders[0].toOrderInfo()
		return &info, nil
	}, func(error) *types.OrderInfo { return nil })
}

// GetActiveOrders returns the orders still working on the book. Only the
// open and new statuses count as active.
func (c *Client) GetActiveOrders(ctx context.Context, contractID string) []types.OrderInfo {
	return retry.Do(ctx, c.retry, func(ctx context.Context) ([]types.OrderInfo, error) {
		params := map[string]string{}
		if contractID != "" {
			params["symbol"] = contractID
		}

		var orders []wireOrder
		if err := c.getSignedList(ctx, endpointOpenOrders, params, &orders); err != nil {
			return nil, err
		}

		active := make([]types.OrderInfo, 0, len(orders))
		for _, o := range orders {
			if o.Status != types.OrderStatusOpen && o.Status != types.OrderStatusNew {
				continue
			}
			active = append(active, o.toOrderInfo())
		}
		return active, nil
	}, func(error) []types.OrderInfo { return []types.OrderInfo{} })
}

// GetPositionTotal sums signed position quantity across all records for the
// configured contract. Multiple partial records add up.
func (c *Client) GetPositionTotal(ctx context.Context) decimal.Decimal {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (decimal.Decimal, error) {
		var positions []wirePosition
		if err := c.getSignedList(ctx, endpointPositions, map[string]string{"symbol": c.symbol}, &positions); err != nil {
			return decimal.Zero, err
		}

		total := decimal.Zero
		for _, p := range positions {
			if p.Symbol == c.symbol {
				total = total.Add(p.Qty)
			}
		}
		return total, nil
	}, func(error) decimal.Decimal { return decimal.Zero })
}

// GetContractAttributes returns the traded symbol and its tick size from the
// public symbol-metadata endpoint. The tick size defaults to 0.01 on any
// unexpected response shape and is cached for close-order rounding.
func (c *Client) GetContractAttributes(ctx context.Context) (string, decimal.Decimal, error) {
	resp, err := c.http.get(ctx, endpointSymbolInfo, canonicalQuery(map[string]string{"symbol": c.symbol}))
	if err != nil {
		return "", decimal.Zero, err
	}

	tick := defaultTickSize
	if resp.IsSuccess() {
		var infos []wireSymbolInfo
		if err := decodeList(resp.Body(), &infos); err == nil && len(infos) > 0 && infos[0].TickSize.IsPositive() {
			tick = infos[0].TickSize
		} else {
			// Fallback for a bare object response.
			var info wireSymbolInfo
			if err := json.Unmarshal(resp.Body(), &info); err == nil && info.TickSize.IsPositive() {
				tick = info.TickSize
			}
		}
	}

	c.tickMu.Lock()
	c.tickSize = tick
	c.tickMu.Unlock()
	return c.symbol, tick, nil
}

// contractTick returns the cached tick size, fetching it on first use.
func (c *Client) contractTick(ctx context.Context) (decimal.Decimal, error) {
	c.tickMu.Lock()
	tick := c.tickSize
	c.tickMu.Unlock()
	if tick.IsPositive() {
		return tick, nil
	}
	_, tick, err := c.GetContractAttributes(ctx)
	return tick, err
}

// getSignedList authenticates, signs the canonical query string and decodes
// a list response. A 401-class status invalidates the token and surfaces as
// an error so the retry policy re-authenticates.
func (c *Client) getSignedList(ctx context.Context, endpoint string, params map[string]string, out any) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return err
	}

	query := canonicalQuery(params)
	resp, err := c.http.getSigned(ctx, endpoint, query, token, c.signer.Sign(query))
	if err != nil {
		return err
	}
	if isAuthStatus(resp.StatusCode()) {
		c.auth.Invalidate(token)
		return errors.Errorf("authorization rejected (http %d)", resp.StatusCode())
	}
	if !resp.IsSuccess() {
		return errors.Errorf("http %d: %s", resp.StatusCode(), resp.Body())
	}
	return decodeList(resp.Body(), out)
}
