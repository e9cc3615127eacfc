package enums

import "fmt"

// ChildOrderStatus tracks the per-seller slice of a customer order.
type ChildOrderStatus string

const (
	ChildOrderStatusPending   ChildOrderStatus = "pending"
	ChildOrderStatusPaid      ChildOrderStatus = "paid"
	ChildOrderStatusCancelled ChildOrderStatus = "cancelled"
)

var validChildOrderStatuses = []ChildOrderStatus{
	ChildOrderStatusPending,
	ChildOrderStatusPaid,
	ChildOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (c ChildOrderStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChildOrderStatus.
func (c ChildOrderStatus) IsValid() bool {
	for _, candidate := range validChildOrderStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChildOrderStatus converts raw input into a ChildOrderStatus.
func ParseChildOrderStatus(value string) (ChildOrderStatus, error) {
	for _, candidate := range validChildOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid child order status %q", value)
}
