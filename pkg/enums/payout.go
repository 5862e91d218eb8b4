package enums

import "fmt"

// PayoutReason maps to the payout_reason_enum enum in Postgres. The ledger
// allows at most one entry per (merchant, reason, recipient) triple.
type PayoutReason string

const (
	PayoutReasonWon  PayoutReason = "WON"
	PayoutReasonLive PayoutReason = "LIVE"
)

var validPayoutReasons = []PayoutReason{
	PayoutReasonWon,
	PayoutReasonLive,
}

// String implements fmt.Stringer.
func (r PayoutReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PayoutReason.
func (r PayoutReason) IsValid() bool {
	for _, candidate := range validPayoutReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePayoutReason converts raw input into a PayoutReason.
func ParsePayoutReason(value string) (PayoutReason, error) {
	for _, candidate := range validPayoutReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout reason %q", value)
}

// PayoutStatus maps to the payout_status_enum enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusPaid     PayoutStatus = "PAID"
	PayoutStatusPending  PayoutStatus = "PENDING"
	PayoutStatusCanceled PayoutStatus = "CANCELED"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPaid,
	PayoutStatusPending,
	PayoutStatusCanceled,
}

// String implements fmt.Stringer.
func (s PayoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PayoutStatus.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
