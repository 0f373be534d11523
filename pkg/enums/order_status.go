package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of a branch order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusInTransit      OrderStatus = "in_transit"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusDeliveryFailed OrderStatus = "delivery_failed"
	OrderStatusReturned       OrderStatus = "returned"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusInTransit,
	OrderStatusPickedUp,
	OrderStatusDelivered,
	OrderStatusDeliveryFailed,
	OrderStatusReturned,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

var terminalOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
	OrderStatusRefunded:       {},
	OrderStatusReturned:       {},
	OrderStatusDeliveryFailed: {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from the status.
// delivery_failed can still move to returned; it is terminal for every other edge.
func (o OrderStatus) IsTerminal() bool {
	_, ok := terminalOrderStatuses[o]
	return ok
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
