// Package balance computes the monthly and yearly partner ledger from raw
// financial records: product revenue lines, fixed and variable expenses,
// partner withdrawals, manual revenue adjustments, and the prior-year cash
// carried into the first month.
package balance

// LineKind distinguishes product revenue lines from group lines.
type LineKind string

// Revenue line kinds.
const (
	KindProduct LineKind = "Product"
	KindGroup   LineKind = "Group"
)

// ExpenseCategory separates fixed from variable expenses.
type ExpenseCategory string

// Expense categories.
const (
	ExpenseFixed    ExpenseCategory = "fixed"
	ExpenseVariable ExpenseCategory = "variable"
)

// Partner is a business partner entitled to a revenue split.
// Share is carried through from the admin UI but the split math divides
// equally between partners; weighting by Share awaits product confirmation.
type Partner struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// RevenueLine is one product or group's aggregated monthly revenue,
// keyed by display name.
type RevenueLine struct {
	Key       string             `json:"key"`
	Label     string             `json:"label,omitempty"`
	Kind      LineKind           `json:"type"`
	ByMonth   map[string]float64 `json:"byMonth"`
	YearTotal float64            `json:"yearTotal"`
}

// Expense is a single expense record for one month.
type Expense struct {
	ID        int64           `json:"id"`
	YearMonth string          `json:"year_month"`
	Category  ExpenseCategory `json:"category"`
	Name      string          `json:"name"`
	Amount    float64         `json:"amount"`
}

// Withdrawal is a partner's cash draw against their available capital.
type Withdrawal struct {
	ID        int64   `json:"id"`
	YearMonth string  `json:"year_month"`
	PartnerID string  `json:"partner_id"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note,omitempty"`
}

// Adjustment is a manual revenue correction on top of imported revenue.
type Adjustment struct {
	ID        int64   `json:"id"`
	YearMonth string  `json:"year_month"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
}

// InitialCash is the prior-year carry-forward balance for a fiscal year.
type InitialCash struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}

// SortOrder is the admin-configured preferred display ordering of revenue
// lines. Names without a matching line are ignored; lines not mentioned are
// appended after the ordered ones.
type SortOrder struct {
	Value []string `json:"value"`
}

// GroupAggregate holds one grouping key's monthly amounts, its year total,
// and the ids of the records that produced it (for edit/delete affordances).
type GroupAggregate struct {
	ByMonth   map[string]float64 `json:"byMonth"`
	YearTotal float64            `json:"yearTotal"`
	SourceIDs []int64            `json:"sourceIds,omitempty"`
}

// TotalAt returns the aggregated amount for one month across all keys.
func TotalAt(agg map[string]GroupAggregate, month string) float64 {
	var total float64
	for _, g := range agg {
		total += g.ByMonth[month]
	}
	return total
}

// YearTotals sums each monthly series across the fiscal year.
type YearTotals struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalExpenses    float64 `json:"totalExpenses"`
	TotalWithdrawals float64 `json:"totalWithdrawals"`
	Net              float64 `json:"net"`
}

// Warning reports a data-quality issue found while preparing inputs.
// Warnings never block computation; the ledger is always produced.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Warning codes emitted by Normalize.
const (
	WarnUnknownPartner = "unknown_partner"
	WarnOutOfYear      = "out_of_year_month"
	WarnNegativeAmount = "negative_amount"
)

// Year is the fully computed ledger for one fiscal year. It is built fresh
// on every request, owned by the caller, and never mutated after Compute
// returns.
type Year struct {
	Year        int       `json:"year"`
	Months      []string  `json:"months"`
	Partners    []Partner `json:"partners"`
	InitialCash float64   `json:"initialCash"`

	RevenueLines     []RevenueLine             `json:"revenueLines"`
	FixedExpenses    map[string]GroupAggregate `json:"fixedExpenses"`
	VariableExpenses map[string]GroupAggregate `json:"variableExpenses"`
	// Withdrawals is keyed by partner id; withdrawals referencing an unknown
	// partner keep their raw id as a synthetic bucket so totals never lose
	// money even when attribution is imperfect.
	Withdrawals map[string]GroupAggregate `json:"withdrawals"`
	Adjustments []Adjustment              `json:"manualRevenueAdjustments"`

	RevenueSubtotalByMonth    map[string]float64            `json:"revenueSubtotalByMonth"`
	RevenueIndividualByMonth  map[string]float64            `json:"revenueIndividualByMonth"`
	AdjustmentsTotalByMonth   map[string]float64            `json:"adjustmentsTotalByMonth"`
	ExpensesTotalByMonth      map[string]float64            `json:"expensesTotalByMonth"`
	WithdrawalsTotalByMonth   map[string]float64            `json:"withdrawalsTotalByMonth"`
	OutflowTotalByMonth       map[string]float64            `json:"outflowTotalByMonth"`
	ExpensesPercentageByMonth map[string]float64            `json:"expensesPercentageByMonth"`
	TotalRevenueByMonth       map[string]float64            `json:"totalRevenueByMonth"`
	NetByMonth                map[string]float64            `json:"netByMonth"`
	AvailableCapitalByPartner map[string]map[string]float64 `json:"availableCapitalByPartner"`

	YearTotals YearTotals `json:"yearTotals"`

	// Year-level sums of the remaining monthly series, precomputed so the
	// presentation adapter never performs arithmetic of its own.
	YearRevenueSubtotal    float64 `json:"yearRevenueSubtotal"`
	YearRevenueIndividual  float64 `json:"yearRevenueIndividual"`
	YearAdjustmentsTotal   float64 `json:"yearAdjustmentsTotal"`
	YearOutflowTotal       float64 `json:"yearOutflowTotal"`
	YearExpensesPercentage float64 `json:"yearExpensesPercentage"`

	Warnings []Warning `json:"warnings,omitempty"`
}
