package balance

import "fmt"

// RawInputs is the untrusted per-year data assembled from storage. Any
// field may be nil or partially malformed; Normalize applies the ledger's
// "never crash" policy in one place instead of scattering nil guards
// through the arithmetic.
type RawInputs struct {
	Year         int
	Partners     []Partner
	RevenueLines []RevenueLine
	SortOrder    []string
	Expenses     []Expense
	Withdrawals  []Withdrawal
	Adjustments  []Adjustment
	InitialCash  *InitialCash
}

// CleanInputs is the validated, defaulted form of RawInputs. All slices are
// non-nil, every month key belongs to the fiscal year's twelve-month
// sequence, and InitialCash is a plain amount.
type CleanInputs struct {
	Year         int
	Months       []string
	Partners     []Partner
	RevenueLines []RevenueLine
	SortOrder    []string
	Expenses     []Expense
	Withdrawals  []Withdrawal
	Adjustments  []Adjustment
	InitialCash  float64
}

// Normalize validates and defaults raw inputs, reporting data-quality
// issues as warnings. Records dated outside the fiscal year are dropped
// (unknown month keys are a defect of the input, not a valid ledger entry);
// withdrawals referencing unknown partners and negative amounts are kept
// but flagged.
func Normalize(raw RawInputs) (CleanInputs, []Warning) {
	months := MonthKeys(raw.Year)
	window := monthSet(months)

	clean := CleanInputs{
		Year:      raw.Year,
		Months:    months,
		Partners:  raw.Partners,
		SortOrder: raw.SortOrder,
	}
	if clean.Partners == nil {
		clean.Partners = []Partner{}
	}
	if clean.SortOrder == nil {
		clean.SortOrder = []string{}
	}
	if raw.InitialCash != nil {
		clean.InitialCash = raw.InitialCash.Amount
	}

	known := make(map[string]bool, len(raw.Partners))
	for _, p := range raw.Partners {
		known[p.ID] = true
	}

	var outOfYear, negative, unknownPartner int

	clean.RevenueLines = make([]RevenueLine, 0, len(raw.RevenueLines))
	for _, line := range raw.RevenueLines {
		byMonth := make(map[string]float64, len(line.ByMonth))
		var total float64
		for month, amount := range line.ByMonth {
			if _, ok := window[month]; !ok {
				outOfYear++
				continue
			}
			if amount < 0 {
				negative++
			}
			byMonth[month] = amount
			total += amount
		}
		line.ByMonth = byMonth
		line.YearTotal = total
		clean.RevenueLines = append(clean.RevenueLines, line)
	}

	clean.Expenses = make([]Expense, 0, len(raw.Expenses))
	for _, e := range raw.Expenses {
		if _, ok := window[e.YearMonth]; !ok {
			outOfYear++
			continue
		}
		if e.Amount < 0 {
			negative++
		}
		clean.Expenses = append(clean.Expenses, e)
	}

	clean.Withdrawals = make([]Withdrawal, 0, len(raw.Withdrawals))
	for _, w := range raw.Withdrawals {
		if _, ok := window[w.YearMonth]; !ok {
			outOfYear++
			continue
		}
		if w.Amount < 0 {
			negative++
		}
		if !known[w.PartnerID] {
			unknownPartner++
		}
		clean.Withdrawals = append(clean.Withdrawals, w)
	}

	clean.Adjustments = make([]Adjustment, 0, len(raw.Adjustments))
	for _, a := range raw.Adjustments {
		if _, ok := window[a.YearMonth]; !ok {
			outOfYear++
			continue
		}
		clean.Adjustments = append(clean.Adjustments, a)
	}

	var warnings []Warning
	if outOfYear > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnOutOfYear,
			Message: fmt.Sprintf("%d record(s) dated outside fiscal year %d were ignored", outOfYear, raw.Year),
			Count:   outOfYear,
		})
	}
	if unknownPartner > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnUnknownPartner,
			Message: fmt.Sprintf("%d withdrawal(s) reference an unknown partner and were bucketed by raw id", unknownPartner),
			Count:   unknownPartner,
		})
	}
	if negative > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNegativeAmount,
			Message: fmt.Sprintf("%d record(s) carry a negative amount", negative),
			Count:   negative,
		})
	}

	return clean, warnings
}
