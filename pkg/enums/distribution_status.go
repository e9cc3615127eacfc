package enums

import "fmt"

// DistributionStatus tracks whether a paid order's money has been split
// across seller, platform, and rider wallets.
type DistributionStatus string

const (
	DistributionStatusPending     DistributionStatus = "pending"
	DistributionStatusDistributed DistributionStatus = "distributed"
)

var validDistributionStatuses = []DistributionStatus{
	DistributionStatusPending,
	DistributionStatusDistributed,
}

// String implements fmt.Stringer.
func (d DistributionStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DistributionStatus.
func (d DistributionStatus) IsValid() bool {
	for _, candidate := range validDistributionStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDistributionStatus converts raw input into a DistributionStatus.
func ParseDistributionStatus(value string) (DistributionStatus, error) {
	for _, candidate := range validDistributionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid distribution status %q", value)
}
