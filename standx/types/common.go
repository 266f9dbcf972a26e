package types

// Side is the order direction accepted by the venue.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType is the order execution type.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// TimeInForce is the order lifetime policy.
type TimeInForce string

const (
	TimeInForceIOC TimeInForce = "ioc" // Immediate or Cancel
	TimeInForceGTC TimeInForce = "gtc" // Good Till Cancel
)

// OrderStatus is the venue-reported order state.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusNew      OrderStatus = "new"
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
)

// Chain is the network identifier sent on the auth endpoints.
type Chain string

const (
	ChainBSC      Chain = "bsc"
	ChainArbitrum Chain = "arbitrum"
)
