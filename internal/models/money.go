package models

import "fmt"

// Money is a price expressed in the smallest unit of its currency
// (cents for USD/EUR). Integer amounts avoid floating-point drift in
// ledger records.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// IsZero reports whether the value carries no amount and no currency.
func (m Money) IsZero() bool {
	return m.Amount == 0 && m.Currency == ""
}

// String formats the value for logs, e.g. "1999 USD".
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
