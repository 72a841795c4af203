package balance

import (
	"math"
	"testing"
)

func line(key string, byMonth map[string]float64) RevenueLine {
	var total float64
	for _, v := range byMonth {
		total += v
	}
	return RevenueLine{Key: key, Kind: KindProduct, ByMonth: byMonth, YearTotal: total}
}

func TestComputeEndToEndQuarter(t *testing.T) {
	months := []string{"2024-01", "2024-02", "2024-03"}
	partners := []Partner{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bruno"}}

	y := Compute(Inputs{
		Year:     2024,
		Months:   months,
		Partners: partners,
		RevenueLines: []RevenueLine{
			line("ProductX", map[string]float64{"2024-01": 300, "2024-02": 300, "2024-03": 300}),
		},
		FixedAgg: map[string]GroupAggregate{
			"Rent": {ByMonth: map[string]float64{"2024-01": 100, "2024-02": 100, "2024-03": 100}, YearTotal: 300},
		},
		WithdrawalAgg: SeedPartnerBuckets(nil, partners),
		InitialCash:   500,
	})

	for _, m := range months {
		if got := y.RevenueSubtotalByMonth[m]; got != 300 {
			t.Fatalf("subtotal %s: got %.2f want 300", m, got)
		}
	}
	if y.TotalRevenueByMonth["2024-01"] != 800 {
		t.Fatalf("january total revenue: got %.2f want 800", y.TotalRevenueByMonth["2024-01"])
	}
	if y.TotalRevenueByMonth["2024-02"] != 300 || y.TotalRevenueByMonth["2024-03"] != 300 {
		t.Fatalf("carry-forward leaked past the first month: %v", y.TotalRevenueByMonth)
	}
	if y.NetByMonth["2024-01"] != 700 || y.NetByMonth["2024-02"] != 200 || y.NetByMonth["2024-03"] != 200 {
		t.Fatalf("unexpected net series: %v", y.NetByMonth)
	}
	if y.YearTotals.TotalRevenue != 1400 {
		t.Fatalf("year total revenue: got %.2f want 1400", y.YearTotals.TotalRevenue)
	}
	if y.RevenueIndividualByMonth["2024-01"] != 150 {
		t.Fatalf("individual share: got %.2f want 150", y.RevenueIndividualByMonth["2024-01"])
	}
}

func TestComputeSubtotalSumsAllResolvedLines(t *testing.T) {
	raw := []RevenueLine{
		line("A", map[string]float64{"2024-01": 100}),
		line("B", map[string]float64{"2024-01": 50}),
		line("C", map[string]float64{"2024-01": 200}),
	}

	for _, sortOrder := range [][]string{nil, {"B"}, {"B", "A"}} {
		y := Compute(Inputs{
			Year:         2024,
			Partners:     []Partner{{ID: "p1"}},
			RevenueLines: ResolveRevenueLines(raw, sortOrder),
		})
		if got := y.RevenueSubtotalByMonth["2024-01"]; got != 350 {
			t.Fatalf("sortOrder %v: subtotal got %.2f want 350", sortOrder, got)
		}
	}
}

func TestComputeZeroPartnersYieldsZeroShare(t *testing.T) {
	y := Compute(Inputs{
		Year:         2024,
		RevenueLines: []RevenueLine{line("A", map[string]float64{"2024-05": 900})},
	})

	for _, m := range y.Months {
		got := y.RevenueIndividualByMonth[m]
		if got != 0 || math.IsNaN(got) {
			t.Fatalf("month %s: individual share got %v want 0", m, got)
		}
	}
}

func TestComputePercentageZeroGuard(t *testing.T) {
	y := Compute(Inputs{
		Year:     2024,
		Partners: []Partner{{ID: "p1"}},
		FixedAgg: map[string]GroupAggregate{
			"Hosting": {ByMonth: map[string]float64{"2024-02": 500}, YearTotal: 500},
		},
	})

	got := y.ExpensesPercentageByMonth["2024-02"]
	if got != 0 || math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("percentage with zero revenue: got %v want 0", got)
	}
}

func TestComputeInitialCashScope(t *testing.T) {
	y := Compute(Inputs{
		Year:     2024,
		Partners: []Partner{{ID: "p1"}},
		RevenueLines: []RevenueLine{
			line("A", map[string]float64{"2024-01": 250, "2024-02": 400}),
		},
		InitialCash: 1000,
	})

	if y.RevenueSubtotalByMonth["2024-01"] != 250 {
		t.Fatalf("carry-forward leaked into subtotal: %.2f", y.RevenueSubtotalByMonth["2024-01"])
	}
	if y.TotalRevenueByMonth["2024-01"] != 1250 {
		t.Fatalf("first month total revenue: got %.2f want 1250", y.TotalRevenueByMonth["2024-01"])
	}
	if y.TotalRevenueByMonth["2024-02"] != 400 {
		t.Fatalf("second month total revenue: got %.2f want 400", y.TotalRevenueByMonth["2024-02"])
	}
}

func TestComputeAvailableCapitalChaining(t *testing.T) {
	months := MonthKeys(2024)
	byMonth := make(map[string]float64, 12)
	for _, m := range months {
		byMonth[m] = 1200.0 / 12
	}
	partner := Partner{ID: "solo", Name: "Solo"}

	y := Compute(Inputs{
		Year:         2024,
		Partners:     []Partner{partner},
		RevenueLines: []RevenueLine{line("A", byMonth)},
		WithdrawalAgg: map[string]GroupAggregate{
			"solo": {ByMonth: map[string]float64{"2024-03": 100}, YearTotal: 100},
		},
	})

	capital := y.AvailableCapitalByPartner["solo"]
	share := 100.0
	var prev float64
	for i, m := range months {
		want := prev + share
		if m == "2024-03" {
			want -= 100
		}
		if diff := capital[m] - want; math.Abs(diff) > 1e-9 {
			t.Fatalf("month %d (%s): capital got %.4f want %.4f", i+1, m, capital[m], want)
		}
		prev = capital[m]
	}
	if diff := capital[months[11]] - (12*share - 100); math.Abs(diff) > 1e-9 {
		t.Fatalf("final capital: got %.4f want %.4f", capital[months[11]], 12*share-100)
	}
}

func TestComputeWithdrawalReconciliation(t *testing.T) {
	partners := []Partner{{ID: "p1"}, {ID: "p2"}}
	withdrawals := []Withdrawal{
		{ID: 1, YearMonth: "2024-04", PartnerID: "p1", Amount: 120},
		{ID: 2, YearMonth: "2024-04", PartnerID: "p2", Amount: 80},
		{ID: 3, YearMonth: "2024-04", PartnerID: "ghost", Amount: 40},
		{ID: 4, YearMonth: "2024-06", PartnerID: "p1", Amount: 10},
	}

	agg := SeedPartnerBuckets(AggregateByGroupAndMonth(WithdrawalEntries(withdrawals)), partners)
	y := Compute(Inputs{Year: 2024, Partners: partners, WithdrawalAgg: agg})

	for _, m := range y.Months {
		var sum float64
		for _, g := range y.Withdrawals {
			sum += g.ByMonth[m]
		}
		if sum != y.WithdrawalsTotalByMonth[m] {
			t.Fatalf("month %s: per-partner sum %.2f != flat total %.2f", m, sum, y.WithdrawalsTotalByMonth[m])
		}
	}
	if y.WithdrawalsTotalByMonth["2024-04"] != 240 {
		t.Fatalf("unknown-partner withdrawal lost from totals: %.2f", y.WithdrawalsTotalByMonth["2024-04"])
	}
}

func TestComputeAdjustmentsStayOutOfSubtotal(t *testing.T) {
	adjustments := []Adjustment{{ID: 1, YearMonth: "2024-02", Name: "Refund fix", Amount: 75}}

	y := Compute(Inputs{
		Year:          2024,
		Partners:      []Partner{{ID: "p1"}},
		RevenueLines:  []RevenueLine{line("A", map[string]float64{"2024-02": 500})},
		AdjustmentAgg: AggregateByGroupAndMonth(AdjustmentEntries(adjustments)),
		Adjustments:   adjustments,
	})

	if y.RevenueSubtotalByMonth["2024-02"] != 500 {
		t.Fatalf("adjustment leaked into subtotal: %.2f", y.RevenueSubtotalByMonth["2024-02"])
	}
	if y.AdjustmentsTotalByMonth["2024-02"] != 75 {
		t.Fatalf("adjustment series missing: %.2f", y.AdjustmentsTotalByMonth["2024-02"])
	}
	if y.YearAdjustmentsTotal != 75 {
		t.Fatalf("year adjustments total: got %.2f want 75", y.YearAdjustmentsTotal)
	}
}

func TestComputeFromCleanRunsWholePipeline(t *testing.T) {
	clean, warnings := Normalize(RawInputs{
		Year:     2024,
		Partners: []Partner{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bruno"}},
		RevenueLines: []RevenueLine{
			line("FENIX A320", map[string]float64{"2024-01": 600}),
		},
		SortOrder:   []string{"FENIX A320"},
		Expenses:    []Expense{{ID: 1, YearMonth: "2024-01", Category: ExpenseFixed, Name: "Rent", Amount: 100}},
		Withdrawals: []Withdrawal{{ID: 1, YearMonth: "2024-01", PartnerID: "p1", Amount: 50}},
		InitialCash: &InitialCash{Year: 2024, Amount: 200},
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	y := ComputeFromClean(clean, warnings)
	if y.TotalRevenueByMonth["2024-01"] != 800 {
		t.Fatalf("total revenue: got %.2f want 800", y.TotalRevenueByMonth["2024-01"])
	}
	if y.NetByMonth["2024-01"] != 650 {
		t.Fatalf("net: got %.2f want 650", y.NetByMonth["2024-01"])
	}
	if y.AvailableCapitalByPartner["p1"]["2024-01"] != 250 {
		t.Fatalf("p1 capital: got %.2f want 250", y.AvailableCapitalByPartner["p1"]["2024-01"])
	}
	if y.AvailableCapitalByPartner["p2"]["2024-01"] != 300 {
		t.Fatalf("p2 capital: got %.2f want 300", y.AvailableCapitalByPartner["p2"]["2024-01"])
	}
}
