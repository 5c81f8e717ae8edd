package enums

import "strings"

// CodeStatus is the per-record lifecycle status. The column is free text so
// admin overrides can introduce ad-hoc terminal statuses; the constants below
// are the ones the state machine recognizes.
type CodeStatus string

const (
	CodeStatusPending   CodeStatus = "Pending"
	CodeStatusListed    CodeStatus = "Listed"
	CodeStatusPaid      CodeStatus = "Paid"
	CodeStatusRejected  CodeStatus = "Rejected"
	CodeStatusVerified  CodeStatus = "Verified"
	CodeStatusProcessed CodeStatus = "Processed"
)

// NormalizeCodeStatus trims and title-cases raw status text so that
// "pending", " PENDING " and "Pending" compare equal. Empty input defaults
// to Pending.
func NormalizeCodeStatus(raw string) CodeStatus {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CodeStatusPending
	}
	return CodeStatus(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}

// IsTerminal reports whether the status permits no further transitions.
// Payments are final.
func (s CodeStatus) IsTerminal() bool {
	return s == CodeStatusPaid
}

// Payable statuses are eligible for payout processing when priced.
func (s CodeStatus) Payable() bool {
	return s == CodeStatusListed || s == CodeStatusProcessed
}
