package models

// User is a ledger participant. Exactly one user per analytics run is the
// "current user", the subject all insights are computed for, and that id is
// always supplied explicitly by the caller, never inferred from the data.
type User struct {
	// ID is the ledger-assigned identifier.
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is optional and only used for display.
	Email string `json:"email,omitempty"`
}
