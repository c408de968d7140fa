package models

import "time"

// Trend labels shared by the spending analyzer and the balance predictor.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Anomaly severity tiers.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Recurring-charge cadences.
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Prediction confidence levels.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// ValidationResult is the verifier's report. Errors are integrity violations
// that make analytics unreliable; warnings are non-fatal anomalies. Analytics
// always run regardless; the result is data, not an exception.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SpendingInsight summarizes the current user's spending over time. Amounts
// are owed shares: a user's spend is their portion of each expense, not the
// full purchase price.
type SpendingInsight struct {
	TotalSpending float64 `json:"total_spending"`
	CurrencyCode  string  `json:"currency_code"`

	// MonthlyBreakdown maps "YYYY-MM" (UTC calendar month) to summed owed
	// shares for that month.
	MonthlyBreakdown map[string]float64 `json:"monthly_breakdown"`

	MonthlyAverage float64 `json:"monthly_average"`

	// Trend compares the most recent third of months against the earliest
	// third: increasing, decreasing, or stable.
	Trend string `json:"trend"`

	PeakMonth   string  `json:"peak_month"`
	PeakAmount  float64 `json:"peak_amount"`
	Explanation string  `json:"explanation"`
}

// BalanceInsight summarizes net positions between the current user and
// everyone they share expenses with.
type BalanceInsight struct {
	// NetBalance is paid minus owed over all records involving the user,
	// settlements included. Positive means the user is owed money.
	NetBalance   float64 `json:"net_balance"`
	CurrencyCode string  `json:"currency_code"`

	// OwedToUser is the sum of positive per-counterparty balances;
	// UserOwes is the absolute sum of negative ones.
	OwedToUser float64 `json:"owed_to_user"`
	UserOwes   float64 `json:"user_owes"`

	// ByPerson maps counterparty user id to net balance (positive = they
	// owe the current user). Counterparties with no shared expenses are
	// absent, not zero.
	ByPerson map[int64]float64 `json:"by_person"`

	// TrendOverTime maps "YYYY-MM" to the cumulative net balance through
	// the end of that month. This is a running total, not a monthly delta.
	TrendOverTime map[string]float64 `json:"trend_over_time"`

	Explanation string `json:"explanation"`
}

// CategoryTotal is one entry of the top-categories ranking.
type CategoryTotal struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// CategoryInsight breaks spending down by category label.
type CategoryInsight struct {
	ByCategory   map[string]float64 `json:"by_category"`
	CurrencyCode string             `json:"currency_code"`

	// TopCategories is sorted descending by amount, ties broken by
	// category name so output is deterministic across runs.
	TopCategories []CategoryTotal `json:"top_categories"`

	// MonthlyByCategory maps "YYYY-MM" to per-category totals, for trend
	// charts.
	MonthlyByCategory map[string]map[string]float64 `json:"monthly_by_category"`

	Explanation string `json:"explanation"`
}

// GroupTotal is one entry of the top-groups ranking.
type GroupTotal struct {
	GroupID       int64   `json:"group_id"`
	Name          string  `json:"name"`
	TotalSpending float64 `json:"total_spending"`
	ExpenseCount  int     `json:"expense_count"`
	MemberCount   int     `json:"member_count"`
}

// GroupInsight breaks spending down by group.
type GroupInsight struct {
	TopGroups    []GroupTotal `json:"top_groups"`
	CurrencyCode string       `json:"currency_code"`
	Explanation  string       `json:"explanation"`
}

// RecurringExpense is one detected recurring charge.
type RecurringExpense struct {
	Description string `json:"description"`
	Category    string `json:"category"`

	// Amount is the median owed share across occurrences.
	Amount float64 `json:"amount"`

	Frequency   string `json:"frequency"`
	Occurrences int    `json:"occurrences"`

	// MonthlyEquivalent is Amount normalized to a monthly cadence
	// (weekly x4.33, yearly /12).
	MonthlyEquivalent float64 `json:"monthly_equivalent"`

	LastOccurrence time.Time `json:"last_occurrence"`
	CurrencyCode   string    `json:"currency_code"`
}

// SubscriptionInsight lists detected recurring charges and their combined
// monthly cost.
type SubscriptionInsight struct {
	Subscriptions []RecurringExpense `json:"subscriptions"`
	TotalMonthly  float64            `json:"total_monthly"`
	CurrencyCode  string             `json:"currency_code"`
	Explanation   string             `json:"explanation"`
}

// Anomaly is one statistically unusual expense.
type Anomaly struct {
	ExpenseID   int64     `json:"expense_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Threshold   float64   `json:"threshold"`
	Severity    string    `json:"severity"`
}

// AnomalyInsight reports expenses whose owed share exceeds
// mean + k*stddev over the sample.
type AnomalyInsight struct {
	Anomalies    []Anomaly `json:"anomalies"`
	Mean         float64   `json:"mean"`
	StdDev       float64   `json:"std_dev"`
	Multiplier   float64   `json:"multiplier"`
	CurrencyCode string    `json:"currency_code"`
	Explanation  string    `json:"explanation"`
}

// SettlementEfficiency reports how quickly receivables get settled.
type SettlementEfficiency struct {
	AverageDays  float64 `json:"average_days"`
	MedianDays   float64 `json:"median_days"`
	MatchedCount int     `json:"matched_count"`

	// UnpaidCount and UnpaidTotal cover receivables with no matching
	// settlement.
	UnpaidCount int     `json:"unpaid_count"`
	UnpaidTotal float64 `json:"unpaid_total"`

	// ByPerson maps counterparty user id to their average settlement delay
	// in days.
	ByPerson map[int64]float64 `json:"by_person"`

	CurrencyCode string `json:"currency_code"`
	Explanation  string `json:"explanation"`
}

// CashFlowInsight measures directionality: how much the user fronts versus
// consumes.
type CashFlowInsight struct {
	TotalPaid     float64 `json:"total_paid"`
	TotalReceived float64 `json:"total_received"`

	// NetCashFlow is paid minus received; positive = net payer.
	NetCashFlow float64 `json:"net_cash_flow"`

	// FrontPayPercent is the share of the user's expenses where they paid
	// more than they owed.
	FrontPayPercent float64 `json:"front_pay_percent"`

	CurrencyCode string `json:"currency_code"`
	Explanation  string `json:"explanation"`
}

// BalancePrediction extrapolates the cumulative balance a fixed horizon
// ahead using a least-squares linear fit over monthly points.
type BalancePrediction struct {
	PredictedBalance float64 `json:"predicted_balance"`
	CurrencyCode     string  `json:"currency_code"`

	// Confidence is qualitative, by point count, not a statistical
	// confidence interval.
	Confidence    string `json:"confidence"`
	BasedOnMonths int    `json:"based_on_months"`
	Trend         string `json:"trend"`
	Explanation   string `json:"explanation"`
}

// FrictionEntry scores one counterparty by how problematic their
// unpaid-balance and settlement-delay pattern is.
type FrictionEntry struct {
	UserID           int64   `json:"user_id"`
	UnpaidBalance    float64 `json:"unpaid_balance"`
	AverageDelayDays float64 `json:"average_delay_days"`

	// Score is bounded to [0,1) and monotonic in both inputs.
	Score float64 `json:"score"`
}

// FrictionInsight ranks counterparties by friction score, highest first.
type FrictionInsight struct {
	ByPerson    []FrictionEntry `json:"by_person"`
	Explanation string          `json:"explanation"`
}

// DataSummary is the only place raw counts are surfaced.
type DataSummary struct {
	TotalExpenses  int        `json:"total_expenses"`
	TotalGroups    int        `json:"total_groups"`
	SkippedRecords int        `json:"skipped_records"`
	EarliestDate   *time.Time `json:"earliest_date"`
	LatestDate     *time.Time `json:"latest_date"`

	// Currencies are the distinct codes observed before conversion.
	Currencies   []string `json:"currencies"`
	BaseCurrency string   `json:"base_currency"`
}

// Insights is the immutable aggregate returned to callers: one field per
// analyzer result, plus validation and the data summary.
type Insights struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Validation           ValidationResult     `json:"validation"`
	Spending             SpendingInsight      `json:"spending"`
	Balance              BalanceInsight       `json:"balance"`
	Categories           CategoryInsight      `json:"categories"`
	Groups               GroupInsight         `json:"groups"`
	Subscriptions        SubscriptionInsight  `json:"subscriptions"`
	Anomalies            AnomalyInsight       `json:"anomalies"`
	SettlementEfficiency SettlementEfficiency `json:"settlement_efficiency"`
	CashFlow             CashFlowInsight      `json:"cash_flow"`
	Prediction           BalancePrediction    `json:"prediction"`
	Friction             FrictionInsight      `json:"friction"`
	Summary              DataSummary          `json:"summary"`
}
