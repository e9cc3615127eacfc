package enums

import "fmt"

// WithdrawalStatus tracks a payout request through its lifecycle:
// pending -> approved -> processing -> completed | rejected.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusApproved,
	WithdrawalStatusProcessing,
	WithdrawalStatusCompleted,
	WithdrawalStatusRejected,
}

// String implements fmt.Stringer.
func (w WithdrawalStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (w WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (w WithdrawalStatus) IsTerminal() bool {
	return w == WithdrawalStatusCompleted || w == WithdrawalStatusRejected
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}
