package ingest

import (
	"strings"
	"testing"
)

func TestParseJSON(t *testing.T) {
	const body = `{
		"current_user": {"id": 1, "first_name": "Dhruv"},
		"expenses": [
			{"id": 10, "cost": "100.00", "currency_code": "USD", "date": "2024-01-05",
			 "description": "Dinner",
			 "users": [
				{"user": {"id": 1}, "paid_share": "100.00", "owed_share": "50.00"},
				{"user": {"id": 2}, "paid_share": "0", "owed_share": "50.00"}
			 ]}
		],
		"groups": [{"id": 7, "name": "Flat", "group_type": "apartment"}]
	}`

	snap, err := ParseJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if snap.CurrentUser.ID != 1 {
		t.Errorf("CurrentUser.ID = %d, want 1", snap.CurrentUser.ID)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != 10 {
		t.Fatalf("expenses not decoded: %+v", snap.Expenses)
	}
	if len(snap.Expenses[0].Users) != 2 {
		t.Errorf("got %d shares, want 2", len(snap.Expenses[0].Users))
	}
	if len(snap.Groups) != 1 || snap.Groups[0].Name != "Flat" {
		t.Errorf("groups not decoded: %+v", snap.Groups)
	}
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	if _, err := ParseJSON(strings.NewReader("{nope")); err == nil {
		t.Fatal("want decode error, got nil")
	}
}

func TestParseCSV(t *testing.T) {
	const body = `Expense ID,Date,Description,Category,Cost,Currency,Group,Payment,Paid By
100,2024-01-05,Groceries,Food,42.50,USD,Apartment,false,Dhruv
101,2024-01-10,Flight,Travel,"1,200.00",EUR,Goa Trip,false,Dhruv
102,2024-01-12,Payback,,20.00,USD,Apartment,true,Sam
`
	snap, err := ParseCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	if len(snap.Expenses) != 3 {
		t.Fatalf("got %d expenses, want 3", len(snap.Expenses))
	}
	first := snap.Expenses[0]
	if first.ID != 100 || first.Description != "Groceries" || first.Category.Name != "Food" {
		t.Errorf("first row decoded as %+v", first)
	}
	if first.Cost != "42.50" {
		t.Errorf("Cost = %q, want 42.50", first.Cost)
	}
	if snap.Expenses[1].Cost != "1200.00" {
		t.Errorf("thousands separator not stripped: %q", snap.Expenses[1].Cost)
	}
	if !snap.Expenses[2].Payment {
		t.Error("payment row not flagged")
	}

	// Groups and users get first-seen synthetic ids.
	if len(snap.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(snap.Groups))
	}
	if snap.Groups[0].Name != "Apartment" || snap.Groups[0].ID != 1 {
		t.Errorf("first group = %+v, want Apartment with id 1", snap.Groups[0])
	}
	if snap.Expenses[1].GroupID != 2 {
		t.Errorf("Goa Trip group id = %d, want 2", snap.Expenses[1].GroupID)
	}
	if got := snap.Expenses[2].GroupID; got != 1 {
		t.Errorf("repeated group must reuse its id, got %d", got)
	}

	// The first payer stands in as the current user.
	if snap.CurrentUser.FirstName != "Dhruv" {
		t.Errorf("CurrentUser = %+v, want Dhruv", snap.CurrentUser)
	}

	// Single-share rows: payer carries the full cost both ways.
	if len(first.Users) != 1 || first.Users[0].PaidShare != "42.50" || first.Users[0].OwedShare != "42.50" {
		t.Errorf("share synthesis wrong: %+v", first.Users)
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("Description,Cost\nDinner,10\n")); err == nil {
		t.Fatal("want error for missing date column, got nil")
	}
}
