package client

// DefaultAPIBaseURL is the venue's trading API host.
const DefaultAPIBaseURL = "https://perps.standx.com/api"

const (
	endpointNewOrder    = "/new_order"
	endpointCancelOrder = "/cancel_order"
	endpointOrders      = "/orders"
	endpointOpenOrders  = "/query_open_orders"
	endpointPositions   = "/query_positions"
	endpointSymbolInfo  = "/query_symbol_info"
)
