package models

// LedgerEntry tracks the running balance between its owner and one
// counterparty, together with the ordered reasons that moved it.
// The counterparty is the key under which the entry lives in the
// owner's friend book.
type LedgerEntry struct {
	// Balance is the signed amount. Positive means the counterparty
	// owes the owner of this entry.
	Balance float64 `json:"balance"`

	// Reasons records, in order, why the balance moved.
	Reasons []string `json:"reasons,omitempty"`
}

// Add applies a signed delta without recording a reason.
func (e *LedgerEntry) Add(amount float64) {
	e.Balance += amount
}

// AddWithReason applies a signed delta and records why.
func (e *LedgerEntry) AddWithReason(amount float64, reason string) {
	e.Balance += amount
	e.Reasons = append(e.Reasons, reason)
}
