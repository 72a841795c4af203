package balance

// Entry is one raw record handed to the aggregator: a grouping key (expense
// name or partner id), the month it belongs to, its amount, and the source
// record's id.
type Entry struct {
	GroupKey string
	Month    string
	Amount   float64
	SourceID int64
}

// AggregateByGroupAndMonth groups entries by key and month in a single
// pass, accumulating per-month amounts and the year total and collecting
// source ids. Fixed and variable expenses must be aggregated in separate
// calls; mixing categories in one call loses the distinction.
//
// Zero-activity partners are not represented here: callers that need one
// bucket per known partner must seed them with SeedPartnerBuckets before
// merging in withdrawal data.
func AggregateByGroupAndMonth(entries []Entry) map[string]GroupAggregate {
	out := make(map[string]GroupAggregate)
	for _, e := range entries {
		agg, ok := out[e.GroupKey]
		if !ok {
			agg = GroupAggregate{ByMonth: make(map[string]float64)}
		}
		agg.ByMonth[e.Month] += e.Amount
		agg.YearTotal += e.Amount
		agg.SourceIDs = append(agg.SourceIDs, e.SourceID)
		out[e.GroupKey] = agg
	}
	return out
}

// SeedPartnerBuckets guarantees one aggregate per known partner, so the
// reconciliation engine and the views can iterate partners without nil
// checks even when a partner had no withdrawals all year.
func SeedPartnerBuckets(agg map[string]GroupAggregate, partners []Partner) map[string]GroupAggregate {
	if agg == nil {
		agg = make(map[string]GroupAggregate, len(partners))
	}
	for _, p := range partners {
		if _, ok := agg[p.ID]; !ok {
			agg[p.ID] = GroupAggregate{ByMonth: make(map[string]float64)}
		}
	}
	return agg
}

// ExpenseEntries adapts expense records of one category for aggregation,
// grouped by name.
func ExpenseEntries(expenses []Expense, category ExpenseCategory) []Entry {
	entries := make([]Entry, 0, len(expenses))
	for _, e := range expenses {
		if e.Category != category {
			continue
		}
		entries = append(entries, Entry{GroupKey: e.Name, Month: e.YearMonth, Amount: e.Amount, SourceID: e.ID})
	}
	return entries
}

// WithdrawalEntries adapts withdrawal records for aggregation, grouped by
// partner id. Unknown partner ids pass through unchanged and become
// synthetic buckets.
func WithdrawalEntries(withdrawals []Withdrawal) []Entry {
	entries := make([]Entry, 0, len(withdrawals))
	for _, w := range withdrawals {
		entries = append(entries, Entry{GroupKey: w.PartnerID, Month: w.YearMonth, Amount: w.Amount, SourceID: w.ID})
	}
	return entries
}

// AdjustmentEntries adapts manual revenue adjustments for aggregation,
// grouped by name.
func AdjustmentEntries(adjustments []Adjustment) []Entry {
	entries := make([]Entry, 0, len(adjustments))
	for _, a := range adjustments {
		entries = append(entries, Entry{GroupKey: a.Name, Month: a.YearMonth, Amount: a.Amount, SourceID: a.ID})
	}
	return entries
}
