package enums

import "fmt"

// SubOrderStatus tracks the lifecycle of a seller's slice of an order.
type SubOrderStatus string

const (
	SubOrderStatusNotProcessed SubOrderStatus = "not_processed"
	SubOrderStatusProcessing   SubOrderStatus = "processing"
	SubOrderStatusShipped      SubOrderStatus = "shipped"
	SubOrderStatusDelivered    SubOrderStatus = "delivered"
	SubOrderStatusCancelled    SubOrderStatus = "cancelled"
)

var validSubOrderStatuses = []SubOrderStatus{
	SubOrderStatusNotProcessed,
	SubOrderStatusProcessing,
	SubOrderStatusShipped,
	SubOrderStatusDelivered,
	SubOrderStatusCancelled,
}

// subOrderTransitions is the closed transition table. Delivered and Cancelled
// are terminal; Shipped can only move forward.
var subOrderTransitions = map[SubOrderStatus][]SubOrderStatus{
	SubOrderStatusNotProcessed: {SubOrderStatusProcessing},
	SubOrderStatusProcessing:   {SubOrderStatusShipped, SubOrderStatusCancelled},
	SubOrderStatusShipped:      {SubOrderStatusDelivered},
	SubOrderStatusDelivered:    {},
	SubOrderStatusCancelled:    {},
}

// String implements fmt.Stringer.
func (s SubOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubOrderStatus.
func (s SubOrderStatus) IsValid() bool {
	for _, candidate := range validSubOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s SubOrderStatus) IsTerminal() bool {
	return len(subOrderTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether the transition table permits s -> next.
func (s SubOrderStatus) CanTransitionTo(next SubOrderStatus) bool {
	for _, candidate := range subOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseSubOrderStatus converts raw input into a SubOrderStatus.
func ParseSubOrderStatus(value string) (SubOrderStatus, error) {
	for _, candidate := range validSubOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sub order status %q", value)
}
