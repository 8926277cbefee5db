// Package domain defines core data structures used throughout the balance check worker.
package domain

// AccountType category of an exchange account a balance was reported from.
type AccountType string

const (
	// AccountTypeSpot owned balances.
	AccountTypeSpot AccountType = "spot"
	// AccountTypeMargin leveraged or borrowed exposure.
	AccountTypeMargin AccountType = "margin"
)

// String returns the string representation.
func (a AccountType) String() string {
	return string(a)
}

// IsValid checks if the AccountType value is valid.
func (a AccountType) IsValid() bool {
	return a == AccountTypeSpot || a == AccountTypeMargin
}
