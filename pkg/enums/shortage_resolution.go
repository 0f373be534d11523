package enums

import "fmt"

// ShortageResolution is the remedy chosen for a line item that cannot be
// fully covered by branch stock.
type ShortageResolution string

const (
	ShortageResolutionRefund       ShortageResolution = "refund"
	ShortageResolutionTransfer     ShortageResolution = "transfer_to_other_branch"
	ShortageResolutionWalletCredit ShortageResolution = "wallet_credit"
)

var validShortageResolutions = []ShortageResolution{
	ShortageResolutionRefund,
	ShortageResolutionTransfer,
	ShortageResolutionWalletCredit,
}

// String implements fmt.Stringer.
func (s ShortageResolution) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShortageResolution.
func (s ShortageResolution) IsValid() bool {
	for _, candidate := range validShortageResolutions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShortageResolution converts raw input into a ShortageResolution.
func ParseShortageResolution(value string) (ShortageResolution, error) {
	for _, candidate := range validShortageResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shortage resolution %q", value)
}
