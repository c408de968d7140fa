// Package ingest turns raw ledger data into normalized records.
//
// Raw records arrive from two sources, the remote ledger API (Client) and
// exported files (ParseFile), and both converge on the same wire schema
// (RawExpense, RawGroup) before the Normalizer sees them. Amounts and dates
// travel as strings on the wire, exactly as the ledger service emits them;
// the Normalizer owns all parsing, conversion, and validation.
package ingest

// RawUser is a ledger participant as it appears on the wire.
type RawUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// RawShare is one user's participation entry inside an expense. Shares are
// decimal strings; empty means zero.
type RawShare struct {
	User      RawUser `json:"user"`
	PaidShare string  `json:"paid_share"`
	OwedShare string  `json:"owed_share"`
}

// RawRepayment is a transfer attached to an expense. The ledger emits the
// amount in the expense's currency.
type RawRepayment struct {
	FromUserID int64  `json:"from"`
	ToUserID   int64  `json:"to"`
	Amount     string `json:"amount"`
}

// RawCategory is the nested category object on the wire.
type RawCategory struct {
	Name string `json:"name"`
}

// RawExpense is an expense record as the ledger service emits it.
type RawExpense struct {
	ID           int64          `json:"id"`
	GroupID      int64          `json:"group_id"`
	Description  string         `json:"description"`
	Payment      bool           `json:"payment"`
	Cost         string         `json:"cost"`
	CurrencyCode string         `json:"currency_code"`
	Date         string         `json:"date"`
	CreatedBy    RawUser        `json:"created_by"`
	Users        []RawShare     `json:"users"`
	Repayments   []RawRepayment `json:"repayments"`
	Category     RawCategory    `json:"category"`
	DeletedAt    string         `json:"deleted_at,omitempty"`
}

// RawGroup is a group record as the ledger service emits it.
type RawGroup struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GroupType string    `json:"group_type"`
	UpdatedAt string    `json:"updated_at"`
	Members   []RawUser `json:"members"`
}

// Snapshot is everything one ingestion pass collects, from either source.
type Snapshot struct {
	CurrentUser RawUser      `json:"current_user"`
	Expenses    []RawExpense `json:"expenses"`
	Groups      []RawGroup   `json:"groups"`
	Friends     []RawUser    `json:"friends,omitempty"`
}
