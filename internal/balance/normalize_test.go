package balance

import "testing"

func TestNormalizeDefaultsNilInputs(t *testing.T) {
	clean, warnings := Normalize(RawInputs{Year: 2024})

	if clean.Partners == nil || clean.RevenueLines == nil || clean.Expenses == nil ||
		clean.Withdrawals == nil || clean.Adjustments == nil || clean.SortOrder == nil {
		t.Fatalf("nil slice survived normalization: %+v", clean)
	}
	if len(clean.Months) != 12 || clean.Months[0] != "2024-01" {
		t.Fatalf("unexpected months: %v", clean.Months)
	}
	if clean.InitialCash != 0 {
		t.Fatalf("missing initial cash must default to 0, got %.2f", clean.InitialCash)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestNormalizeDropsOutOfYearRecords(t *testing.T) {
	clean, warnings := Normalize(RawInputs{
		Year: 2024,
		RevenueLines: []RevenueLine{
			line("A", map[string]float64{"2024-01": 100, "2023-12": 999}),
		},
		Expenses: []Expense{
			{ID: 1, YearMonth: "2024-01", Category: ExpenseFixed, Name: "Rent", Amount: 100},
			{ID: 2, YearMonth: "2025-01", Category: ExpenseFixed, Name: "Rent", Amount: 100},
		},
	})

	if len(clean.Expenses) != 1 {
		t.Fatalf("out-of-year expense kept: %v", clean.Expenses)
	}
	if clean.RevenueLines[0].YearTotal != 100 {
		t.Fatalf("line year total not recomputed after drop: %.2f", clean.RevenueLines[0].YearTotal)
	}
	if _, ok := clean.RevenueLines[0].ByMonth["2023-12"]; ok {
		t.Fatal("out-of-year month survived on revenue line")
	}

	found := false
	for _, w := range warnings {
		if w.Code == WarnOutOfYear && w.Count == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected out-of-year warning with count 2, got %v", warnings)
	}
}

func TestNormalizeFlagsUnknownPartnerButKeepsRecord(t *testing.T) {
	clean, warnings := Normalize(RawInputs{
		Year:     2024,
		Partners: []Partner{{ID: "p1"}},
		Withdrawals: []Withdrawal{
			{ID: 1, YearMonth: "2024-02", PartnerID: "ghost", Amount: 40},
		},
	})

	if len(clean.Withdrawals) != 1 {
		t.Fatal("unknown-partner withdrawal must be kept")
	}
	found := false
	for _, w := range warnings {
		if w.Code == WarnUnknownPartner && w.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown-partner warning, got %v", warnings)
	}
}

func TestNormalizeFlagsNegativeAmounts(t *testing.T) {
	_, warnings := Normalize(RawInputs{
		Year: 2024,
		Expenses: []Expense{
			{ID: 1, YearMonth: "2024-03", Category: ExpenseVariable, Name: "Chargeback", Amount: -20},
		},
	})

	found := false
	for _, w := range warnings {
		if w.Code == WarnNegativeAmount {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected negative-amount warning, got %v", warnings)
	}
}
