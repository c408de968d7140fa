package analyze

import (
	"fmt"

	"github.com/dhruvsaxena/splitsight/internal/models"
)

// BalanceAnalyzer computes net positions between the current user and each
// counterparty, plus the cumulative balance time series.
type BalanceAnalyzer struct {
	currentUserID int64
	baseCurrency  string
}

// NewBalance builds a BalanceAnalyzer for the given analytics subject.
func NewBalance(currentUserID int64, baseCurrency string) *BalanceAnalyzer {
	return &BalanceAnalyzer{currentUserID: currentUserID, baseCurrency: baseCurrency}
}

// Analyze computes the balance insight over all records involving the
// current user. Ordinary expenses and settlements flow through the same
// per-expense attribution: the user's net change is split across
// counterparties pro-rata to their deficits (or surpluses, when the user is
// the debtor). A counterparty the user shares no expenses with simply does
// not appear in the per-person map.
func (a *BalanceAnalyzer) Analyze(records []models.Record) models.BalanceInsight {
	byPerson := map[int64]float64{}
	monthlyDelta := map[string]float64{}
	var net float64

	for i := range records {
		rec := &records[i]
		share, ok := rec.ShareOf(a.currentUserID)
		if !ok {
			continue
		}
		u := share.Net()
		if u == 0 {
			continue
		}
		net += u
		monthlyDelta[monthKey(rec.Date)] += u
		a.attribute(rec, u, byPerson)
	}

	var owedToUser, userOwes float64
	for _, v := range byPerson {
		if v > 0 {
			owedToUser += v
		} else {
			userOwes += -v
		}
	}

	// Running total through the end of each month, for charting. Distinct
	// from the spending analyzer's isolated monthly totals.
	trend := map[string]float64{}
	var cumulative float64
	for _, m := range sortedKeys(monthlyDelta) {
		cumulative += monthlyDelta[m]
		trend[m] = cumulative
	}

	var desc string
	switch {
	case net > 0:
		desc = fmt.Sprintf("net, you are owed %.2f %s", net, a.baseCurrency)
	case net < 0:
		desc = fmt.Sprintf("net, you owe %.2f %s", -net, a.baseCurrency)
	default:
		desc = "your balances are settled"
	}

	return models.BalanceInsight{
		NetBalance:    net,
		CurrencyCode:  a.baseCurrency,
		OwedToUser:    owedToUser,
		UserOwes:      userOwes,
		ByPerson:      byPerson,
		TrendOverTime: trend,
		Explanation: fmt.Sprintf(
			"You are owed %.2f %s and owe %.2f %s; %s.",
			owedToUser, a.baseCurrency, userOwes, a.baseCurrency, desc),
	}
}

// attribute splits the user's net change u for one record across the other
// participants. When the user is a creditor (u > 0) each deficit-side
// participant owes them pro-rata to that participant's deficit; when the
// user is a debtor the mirror applies against surplus-side participants.
// Positive byPerson values mean the counterparty owes the user.
func (a *BalanceAnalyzer) attribute(rec *models.Record, u float64, byPerson map[int64]float64) {
	var surplus, deficit float64
	for _, s := range rec.Shares {
		if n := s.Net(); n > 0 {
			surplus += n
		} else {
			deficit += -n
		}
	}

	if u > 0 && deficit > 0 {
		// Counterparty deficits are covered by creditors pro-rata; the
		// user's slice of each is u/surplus.
		for _, s := range rec.Shares {
			if s.UserID == a.currentUserID {
				continue
			}
			if n := s.Net(); n < 0 {
				byPerson[s.UserID] += -n * (u / surplus)
			}
		}
	} else if u < 0 && surplus > 0 {
		for _, s := range rec.Shares {
			if s.UserID == a.currentUserID {
				continue
			}
			if n := s.Net(); n > 0 {
				byPerson[s.UserID] -= n * (-u / deficit)
			}
		}
	}
}
