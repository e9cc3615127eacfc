package enums

import "fmt"

// TransactionType marks the direction of a wallet balance change.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeCredit,
	TransactionTypeDebit,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

// TransactionSource names the business event that produced a ledger entry.
type TransactionSource string

const (
	TransactionSourceOrderPayment TransactionSource = "order_payment"
	TransactionSourceCommission   TransactionSource = "commission"
	TransactionSourceDeliveryFee  TransactionSource = "delivery_fee"
	TransactionSourceRefund       TransactionSource = "refund"
	TransactionSourceWithdrawal   TransactionSource = "withdrawal"
)

var validTransactionSources = []TransactionSource{
	TransactionSourceOrderPayment,
	TransactionSourceCommission,
	TransactionSourceDeliveryFee,
	TransactionSourceRefund,
	TransactionSourceWithdrawal,
}

// String implements fmt.Stringer.
func (s TransactionSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionSource.
func (s TransactionSource) IsValid() bool {
	for _, candidate := range validTransactionSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTransactionSource converts raw input into a TransactionSource.
func ParseTransactionSource(value string) (TransactionSource, error) {
	for _, candidate := range validTransactionSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction source %q", value)
}

// TransactionStatus reflects whether a ledger entry still stands.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusCompleted,
	TransactionStatusReversed,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
