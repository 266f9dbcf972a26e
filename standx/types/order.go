package types

import "github.com/shopspring/decimal"

// OrderRequest describes an order to submit. Quantities and prices are exact
// decimals; they are serialized as strings on the wire.
type OrderRequest struct {
	Symbol      string
	Side        Side
	OrderType   OrderType
	Quantity    decimal.Decimal
	Price       decimal.Decimal // limit orders only
	TimeInForce TimeInForce
	ReduceOnly  bool
}

// OrderResult is the value returned from every mutating gateway call. All
// failure is encoded here; callers never receive a transport error directly.
type OrderResult struct {
	Success      bool
	OrderID      string
	Side         Side
	Size         decimal.Decimal
	Price        decimal.Decimal
	Status       OrderStatus
	ErrorMessage string
}

// OrderInfo is a queried order snapshot. RemainingSize is derived as
// Size - FilledSize.
type OrderInfo struct {
	OrderID       string
	Side          Side
	Size          decimal.Decimal
	Price         decimal.Decimal
	Status        OrderStatus
	FilledSize    decimal.Decimal
	RemainingSize decimal.Decimal
}

// OrderUpdate is a normalized order event from the streaming channel. Only
// filled and canceled events are forwarded to subscribers.
type OrderUpdate struct {
	ContractID string
	OrderID    string
	Status     OrderStatus
	Side       Side
	Size       decimal.Decimal
	Price      decimal.Decimal
	FilledSize decimal.Decimal
}
