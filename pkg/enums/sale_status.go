package enums

import "fmt"

// SaleStatus describes the allowed values for the `status` column in sales.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusCompleted,
}

// IsValid reports whether the value matches the canonical sale status enum.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts the raw string to SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
