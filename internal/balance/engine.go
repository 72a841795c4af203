package balance

// Inputs carries everything the reconciliation engine needs for one fiscal
// year: resolved revenue lines, category aggregates, and the carry-forward
// cash. Build it from CleanInputs via the resolver and aggregator; the
// engine itself performs no grouping or ordering.
type Inputs struct {
	Year          int
	Months        []string
	Partners      []Partner
	RevenueLines  []RevenueLine
	FixedAgg      map[string]GroupAggregate
	VariableAgg   map[string]GroupAggregate
	WithdrawalAgg map[string]GroupAggregate
	AdjustmentAgg map[string]GroupAggregate
	Adjustments   []Adjustment
	InitialCash   float64
	Warnings      []Warning
}

// Compute derives the full ledger for one fiscal year. It is a pure
// function: each call returns a freshly built Year and shares no state with
// other invocations, so concurrent computations for different years are
// safe.
//
// Within a month the computation order is fixed because later figures
// depend on earlier ones; across months only the available-capital series
// carries state, chained from the previous month.
func Compute(in Inputs) *Year {
	months := in.Months
	if len(months) == 0 {
		months = MonthKeys(in.Year)
	}
	partnerCount := len(in.Partners)

	y := &Year{
		Year:        in.Year,
		Months:      months,
		Partners:    in.Partners,
		InitialCash: in.InitialCash,

		RevenueLines:     in.RevenueLines,
		FixedExpenses:    in.FixedAgg,
		VariableExpenses: in.VariableAgg,
		Withdrawals:      in.WithdrawalAgg,
		Adjustments:      in.Adjustments,

		RevenueSubtotalByMonth:    make(map[string]float64, len(months)),
		RevenueIndividualByMonth:  make(map[string]float64, len(months)),
		AdjustmentsTotalByMonth:   make(map[string]float64, len(months)),
		ExpensesTotalByMonth:      make(map[string]float64, len(months)),
		WithdrawalsTotalByMonth:   make(map[string]float64, len(months)),
		OutflowTotalByMonth:       make(map[string]float64, len(months)),
		ExpensesPercentageByMonth: make(map[string]float64, len(months)),
		TotalRevenueByMonth:       make(map[string]float64, len(months)),
		NetByMonth:                make(map[string]float64, len(months)),
		AvailableCapitalByPartner: make(map[string]map[string]float64, partnerCount),

		Warnings: in.Warnings,
	}

	for _, p := range in.Partners {
		y.AvailableCapitalByPartner[p.ID] = make(map[string]float64, len(months))
	}

	for idx, month := range months {
		// 1. Revenue subtotal: every resolved line counts, whether or not
		// the sort order mentions it. Manual adjustments are tracked as a
		// separate series and deliberately excluded from the subtotal and
		// from total revenue.
		var subtotal float64
		for _, line := range in.RevenueLines {
			subtotal += line.ByMonth[month]
		}
		y.RevenueSubtotalByMonth[month] = subtotal
		y.AdjustmentsTotalByMonth[month] = TotalAt(in.AdjustmentAgg, month)

		// 2. Equal split; zero partners short-circuits to zero.
		var individual float64
		if partnerCount > 0 {
			individual = subtotal / float64(partnerCount)
		}
		y.RevenueIndividualByMonth[month] = individual

		// 3-4. Expense and withdrawal totals.
		expenses := TotalAt(in.FixedAgg, month) + TotalAt(in.VariableAgg, month)
		withdrawals := TotalAt(in.WithdrawalAgg, month)
		y.ExpensesTotalByMonth[month] = expenses
		y.WithdrawalsTotalByMonth[month] = withdrawals
		y.OutflowTotalByMonth[month] = expenses + withdrawals

		// 5. Outflow-to-revenue percentage with an explicit zero guard.
		if subtotal > 0 {
			y.ExpensesPercentageByMonth[month] = (expenses + withdrawals) / subtotal * 100
		} else {
			y.ExpensesPercentageByMonth[month] = 0
		}

		// 6. Initial cash lands only in the first month's total revenue,
		// never in the plain subtotal.
		totalRevenue := subtotal
		if idx == 0 {
			totalRevenue += in.InitialCash
		}
		y.TotalRevenueByMonth[month] = totalRevenue

		// 7. Net cash-flow for the month.
		y.NetByMonth[month] = totalRevenue - expenses - withdrawals

		// 8. Per-partner running capital, chained from the prior month.
		// Initial cash stays out of per-partner capital.
		for _, p := range in.Partners {
			var prev float64
			if idx > 0 {
				prev = y.AvailableCapitalByPartner[p.ID][months[idx-1]]
			}
			var drawn float64
			if agg, ok := in.WithdrawalAgg[p.ID]; ok {
				drawn = agg.ByMonth[month]
			}
			y.AvailableCapitalByPartner[p.ID][month] = prev + individual - drawn
		}
	}

	// 9. Year totals are sums of the monthly series; total revenue picks up
	// the carry-forward once through the first month.
	for _, month := range months {
		y.YearTotals.TotalRevenue += y.TotalRevenueByMonth[month]
		y.YearTotals.TotalExpenses += y.ExpensesTotalByMonth[month]
		y.YearTotals.TotalWithdrawals += y.WithdrawalsTotalByMonth[month]
		y.YearTotals.Net += y.NetByMonth[month]
		y.YearRevenueSubtotal += y.RevenueSubtotalByMonth[month]
		y.YearRevenueIndividual += y.RevenueIndividualByMonth[month]
		y.YearAdjustmentsTotal += y.AdjustmentsTotalByMonth[month]
		y.YearOutflowTotal += y.OutflowTotalByMonth[month]
	}
	if y.YearTotals.TotalRevenue > 0 {
		y.YearExpensesPercentage = (y.YearTotals.TotalExpenses + y.YearTotals.TotalWithdrawals) / y.YearTotals.TotalRevenue * 100
	}

	return y
}

// ComputeFromClean runs the resolver, the category aggregators, and the
// engine over normalized inputs. This is the one assembly point for the
// whole pipeline; views and handlers never re-derive any figure.
func ComputeFromClean(clean CleanInputs, warnings []Warning) *Year {
	lines := ResolveRevenueLines(clean.RevenueLines, clean.SortOrder)
	fixedAgg := AggregateByGroupAndMonth(ExpenseEntries(clean.Expenses, ExpenseFixed))
	variableAgg := AggregateByGroupAndMonth(ExpenseEntries(clean.Expenses, ExpenseVariable))
	withdrawalAgg := SeedPartnerBuckets(AggregateByGroupAndMonth(WithdrawalEntries(clean.Withdrawals)), clean.Partners)
	adjustmentAgg := AggregateByGroupAndMonth(AdjustmentEntries(clean.Adjustments))

	return Compute(Inputs{
		Year:          clean.Year,
		Months:        clean.Months,
		Partners:      clean.Partners,
		RevenueLines:  lines,
		FixedAgg:      fixedAgg,
		VariableAgg:   variableAgg,
		WithdrawalAgg: withdrawalAgg,
		AdjustmentAgg: adjustmentAgg,
		Adjustments:   clean.Adjustments,
		InitialCash:   clean.InitialCash,
		Warnings:      warnings,
	})
}
