package models

import "time"

// Group is a set of users who share expenses ("Roommates", "Lisbon Trip").
type Group struct {
	// ID is the ledger-assigned identifier.
	ID int64 `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// GroupType is the ledger's type tag: "household", "trip", "other", etc.
	GroupType string `json:"group_type"`

	// UpdatedAt is the last time the group changed upstream.
	UpdatedAt time.Time `json:"updated_at"`

	// Members are the users belonging to the group.
	Members []User `json:"members"`
}

// HasMember reports whether the given user belongs to the group.
func (g *Group) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
