package balance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
)

// Row kinds used by both ledger views.
const (
	RowRevenue    = "revenue"
	RowAdjustment = "adjustment"
	RowFixed      = "fixed_expense"
	RowVariable   = "variable_expense"
	RowWithdrawal = "withdrawal"
	RowSummary    = "summary"
)

// PeriodTotal selects the year-total slice in the single-period view.
const PeriodTotal = "TOTAL"

// Cell is one displayable figure: the raw value plus its formatted form.
type Cell struct {
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// GridRow is one line of the full-year matrix, with one cell per month.
type GridRow struct {
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	Cells     []Cell  `json:"cells"`
	Total     Cell    `json:"total"`
	SourceIDs []int64 `json:"sourceIds,omitempty"`
}

// Grid is the month-by-month "all months" layout of a computed Year.
type Grid struct {
	Year             int       `json:"year"`
	Months           []string  `json:"months"`
	Revenue          []GridRow `json:"revenue"`
	Adjustments      []GridRow `json:"adjustments,omitempty"`
	FixedExpenses    []GridRow `json:"fixedExpenses"`
	VariableExpenses []GridRow `json:"variableExpenses"`
	Withdrawals      []GridRow `json:"withdrawals"`
	Summary          []GridRow `json:"summary"`
	Warnings         []Warning `json:"warnings,omitempty"`
}

// PeriodRow is one figure of the condensed single-period layout.
type PeriodRow struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Cell  Cell   `json:"cell"`
}

// Period is the condensed view of either one month or the year total.
type Period struct {
	Year   int         `json:"year"`
	Period string      `json:"period"`
	Rows   []PeriodRow `json:"rows"`
}

// BuildGrid projects a computed Year into the full-grid layout. It only
// selects and formats figures the engine already produced; a month absent
// from a series renders as a zero cell, never an error.
func BuildGrid(y *Year) Grid {
	g := Grid{
		Year:     y.Year,
		Months:   y.Months,
		Warnings: y.Warnings,
	}

	for _, line := range y.RevenueLines {
		g.Revenue = append(g.Revenue, seriesRow(line.Label, RowRevenue, y.Months, line.ByMonth, line.YearTotal, nil))
	}
	if len(y.Adjustments) > 0 {
		g.Adjustments = append(g.Adjustments,
			seriesRow("MANUAL ADJUSTMENTS", RowAdjustment, y.Months, y.AdjustmentsTotalByMonth, y.YearAdjustmentsTotal, nil))
	}
	g.FixedExpenses = aggregateRows(y.Months, y.FixedExpenses, RowFixed, nil)
	g.VariableExpenses = aggregateRows(y.Months, y.VariableExpenses, RowVariable, nil)
	g.Withdrawals = aggregateRows(y.Months, y.Withdrawals, RowWithdrawal, partnerNames(y.Partners))

	g.Summary = []GridRow{
		seriesRow("REVENUE SUBTOTAL", RowSummary, y.Months, y.RevenueSubtotalByMonth, y.YearRevenueSubtotal, nil),
		seriesRow("SUBTOTAL / PARTNER", RowSummary, y.Months, y.RevenueIndividualByMonth, y.YearRevenueIndividual, nil),
		seriesRow("TOTAL EXPENSES", RowSummary, y.Months, y.OutflowTotalByMonth, y.YearOutflowTotal, nil),
		percentRow("% EXPENSE / REVENUE", y.Months, y.ExpensesPercentageByMonth, y.YearExpensesPercentage),
		seriesRow("TOTAL REVENUE", RowSummary, y.Months, y.TotalRevenueByMonth, y.YearTotals.TotalRevenue, nil),
		seriesRow("NET", RowSummary, y.Months, y.NetByMonth, y.YearTotals.Net, nil),
	}

	return g
}

// BuildPeriod projects a computed Year into the single-period layout.
// The selector is either a month key from the year's month list or
// PeriodTotal; anything else falls back to the year total rather than
// rendering a wrong or stale month.
func BuildPeriod(y *Year, selector string) Period {
	selector = strings.TrimSpace(selector)
	total := true
	if !strings.EqualFold(selector, PeriodTotal) && selector != "" {
		for _, m := range y.Months {
			if m == selector {
				total = false
				break
			}
		}
	}

	p := Period{Year: y.Year}
	if total {
		p.Period = PeriodTotal
		for _, line := range y.RevenueLines {
			p.Rows = append(p.Rows, PeriodRow{Label: line.Label, Kind: RowRevenue, Cell: moneyCell(line.YearTotal)})
		}
		p.Rows = append(p.Rows,
			PeriodRow{Label: "REVENUE SUBTOTAL", Kind: RowSummary, Cell: moneyCell(y.YearRevenueSubtotal)},
			PeriodRow{Label: "SUBTOTAL / PARTNER", Kind: RowSummary, Cell: moneyCell(y.YearRevenueIndividual)},
			PeriodRow{Label: "TOTAL EXPENSES", Kind: RowSummary, Cell: moneyCell(y.YearOutflowTotal)},
			PeriodRow{Label: "% EXPENSE / REVENUE", Kind: RowSummary, Cell: percentCell(y.YearExpensesPercentage)},
			PeriodRow{Label: "TOTAL REVENUE", Kind: RowSummary, Cell: moneyCell(y.YearTotals.TotalRevenue)},
			PeriodRow{Label: "NET", Kind: RowSummary, Cell: moneyCell(y.YearTotals.Net)},
		)
		return p
	}

	p.Period = selector
	for _, line := range y.RevenueLines {
		p.Rows = append(p.Rows, PeriodRow{Label: line.Label, Kind: RowRevenue, Cell: moneyCell(line.ByMonth[selector])})
	}
	p.Rows = append(p.Rows,
		PeriodRow{Label: "REVENUE SUBTOTAL", Kind: RowSummary, Cell: moneyCell(y.RevenueSubtotalByMonth[selector])},
		PeriodRow{Label: "SUBTOTAL / PARTNER", Kind: RowSummary, Cell: moneyCell(y.RevenueIndividualByMonth[selector])},
		PeriodRow{Label: "TOTAL EXPENSES", Kind: RowSummary, Cell: moneyCell(y.OutflowTotalByMonth[selector])},
		PeriodRow{Label: "% EXPENSE / REVENUE", Kind: RowSummary, Cell: percentCell(y.ExpensesPercentageByMonth[selector])},
		PeriodRow{Label: "TOTAL REVENUE", Kind: RowSummary, Cell: moneyCell(y.TotalRevenueByMonth[selector])},
		PeriodRow{Label: "NET", Kind: RowSummary, Cell: moneyCell(y.NetByMonth[selector])},
	)
	return p
}

func seriesRow(label, kind string, months []string, byMonth map[string]float64, total float64, ids []int64) GridRow {
	row := GridRow{Label: label, Kind: kind, Cells: make([]Cell, 0, len(months)), Total: moneyCell(total), SourceIDs: ids}
	for _, m := range months {
		row.Cells = append(row.Cells, moneyCell(byMonth[m]))
	}
	return row
}

func percentRow(label string, months []string, byMonth map[string]float64, total float64) GridRow {
	row := GridRow{Label: label, Kind: RowSummary, Cells: make([]Cell, 0, len(months)), Total: percentCell(total)}
	for _, m := range months {
		row.Cells = append(row.Cells, percentCell(byMonth[m]))
	}
	return row
}

func aggregateRows(months []string, agg map[string]GroupAggregate, kind string, labels map[string]string) []GridRow {
	keys := make([]string, 0, len(agg))
	for key := range agg {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]GridRow, 0, len(keys))
	for _, key := range keys {
		label := key
		if labels != nil {
			if name, ok := labels[key]; ok {
				label = name
			}
		}
		g := agg[key]
		rows = append(rows, seriesRow(strings.ToUpper(label), kind, months, g.ByMonth, g.YearTotal, g.SourceIDs))
	}
	return rows
}

func partnerNames(partners []Partner) map[string]string {
	names := make(map[string]string, len(partners))
	for _, p := range partners {
		names[p.ID] = p.Name
	}
	return names
}

func moneyCell(v float64) Cell {
	return Cell{Value: v, Display: money.New(int64(v*100+copysignHalf(v)), money.BRL).Display()}
}

func percentCell(v float64) Cell {
	return Cell{Value: v, Display: fmt.Sprintf("%.2f%%", v)}
}

// copysignHalf rounds half away from zero when converting to cents.
func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}
