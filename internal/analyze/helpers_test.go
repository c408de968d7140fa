package analyze

import (
	"testing"
	"time"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// Fixture users shared across analyzer tests.
const (
	me    = int64(1)
	bob   = int64(2)
	carol = int64(3)
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", s, err)
	}
	return d.UTC()
}

func share(userID int64, paid, owed float64) models.Share {
	return models.Share{UserID: userID, PaidShare: paid, OwedShare: owed}
}

func expense(t *testing.T, id int64, date, desc, category string, amount float64, shares ...models.Share) models.Record {
	t.Helper()
	return models.Record{
		Expense: models.Expense{
			ID:           id,
			Description:  desc,
			Amount:       amount,
			CurrencyCode: "USD",
			Date:         day(t, date),
			Category:     category,
			Shares:       shares,
		},
		SourceCurrency: "USD",
		Converted:      true,
	}
}

// settlement builds a transfer record: from pays amount to to.
func settlement(t *testing.T, id int64, date string, from, to int64, amount float64) models.Record {
	t.Helper()
	rec := expense(t, id, date, "Payment", "", amount,
		share(from, amount, 0),
		share(to, 0, amount),
	)
	rec.IsPayment = true
	rec.IsSettlement = true
	return rec
}
