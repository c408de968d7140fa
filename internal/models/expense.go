package models

import "time"

// Share records one user's participation in an expense: what they physically
// paid and what portion of the cost is theirs to carry.
type Share struct {
	// UserID identifies the participant.
	UserID int64 `json:"user_id"`

	// PaidShare is the amount this user physically paid toward the expense.
	PaidShare float64 `json:"paid_share"`

	// OwedShare is the portion of the cost attributed to this user,
	// independent of who paid.
	OwedShare float64 `json:"owed_share"`
}

// Net returns paid minus owed: positive means the user is owed money for
// this expense, negative means they owe.
func (s Share) Net() float64 {
	return s.PaidShare - s.OwedShare
}

// Repayment is a recorded transfer inside an expense, typically attached to
// settlement entries.
type Repayment struct {
	FromUserID   int64   `json:"from_user_id"`
	ToUserID     int64   `json:"to_user_id"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
}

// Expense is a single ledger entry: either a shared purchase or, when
// IsPayment is set, a settlement transfer between two users.
type Expense struct {
	// ID is the ledger-assigned identifier.
	ID int64 `json:"id"`

	// GroupID is the owning group, or 0 for non-group expenses.
	GroupID int64 `json:"group_id"`

	// Description is the free-form label entered by whoever created the
	// expense ("Netflix Subscription", "Dinner at Luigi's").
	Description string `json:"description"`

	// Amount is the full cost of the expense.
	Amount float64 `json:"amount"`

	// CurrencyCode is the ISO 4217 code the amount and shares are expressed in.
	CurrencyCode string `json:"currency_code"`

	// Date is when the expense occurred.
	Date time.Time `json:"date"`

	// IsPayment marks settlement transfers, which zero out existing debt
	// rather than representing a new purchase.
	IsPayment bool `json:"is_payment"`

	// Category is the spending category label; empty means uncategorized.
	Category string `json:"category"`

	// CreatedByID is the user who recorded the expense.
	CreatedByID int64 `json:"created_by_id"`

	// Shares lists every participant's paid and owed portions. Invariant:
	// sum(paid) == sum(owed) == Amount within the currency's epsilon.
	Shares []Share `json:"shares"`

	// Repayments are transfers attached to this expense, if any.
	Repayments []Repayment `json:"repayments,omitempty"`
}

// ShareOf returns the share entry for the given user and whether the user
// participates in this expense at all.
func (e *Expense) ShareOf(userID int64) (Share, bool) {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return s, true
		}
	}
	return Share{}, false
}
