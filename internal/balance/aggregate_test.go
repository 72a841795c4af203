package balance

import "testing"

func TestAggregateByGroupAndMonthSumsAndCollectsIDs(t *testing.T) {
	entries := []Entry{
		{GroupKey: "Rent", Month: "2024-01", Amount: 100, SourceID: 1},
		{GroupKey: "Rent", Month: "2024-01", Amount: 50, SourceID: 2},
		{GroupKey: "Rent", Month: "2024-02", Amount: 100, SourceID: 3},
		{GroupKey: "Hosting", Month: "2024-01", Amount: 30, SourceID: 4},
	}

	agg := AggregateByGroupAndMonth(entries)

	rent := agg["Rent"]
	if rent.ByMonth["2024-01"] != 150 || rent.ByMonth["2024-02"] != 100 {
		t.Fatalf("unexpected rent months: %v", rent.ByMonth)
	}
	if rent.YearTotal != 250 {
		t.Fatalf("rent year total: got %.2f want 250", rent.YearTotal)
	}
	if len(rent.SourceIDs) != 3 {
		t.Fatalf("rent source ids: got %v", rent.SourceIDs)
	}
	if agg["Hosting"].YearTotal != 30 {
		t.Fatalf("hosting year total: got %.2f", agg["Hosting"].YearTotal)
	}
}

func TestExpenseEntriesNeverMixCategories(t *testing.T) {
	expenses := []Expense{
		{ID: 1, YearMonth: "2024-01", Category: ExpenseFixed, Name: "Rent", Amount: 100},
		{ID: 2, YearMonth: "2024-01", Category: ExpenseVariable, Name: "Ads", Amount: 40},
	}

	fixed := AggregateByGroupAndMonth(ExpenseEntries(expenses, ExpenseFixed))
	variable := AggregateByGroupAndMonth(ExpenseEntries(expenses, ExpenseVariable))

	if _, ok := fixed["Ads"]; ok {
		t.Fatal("variable expense leaked into fixed aggregate")
	}
	if _, ok := variable["Rent"]; ok {
		t.Fatal("fixed expense leaked into variable aggregate")
	}
	if fixed["Rent"].YearTotal != 100 || variable["Ads"].YearTotal != 40 {
		t.Fatalf("unexpected totals: fixed=%v variable=%v", fixed, variable)
	}
}

func TestSeedPartnerBucketsAddsZeroActivityPartners(t *testing.T) {
	partners := []Partner{{ID: "p1"}, {ID: "p2"}}
	agg := AggregateByGroupAndMonth(WithdrawalEntries([]Withdrawal{
		{ID: 1, YearMonth: "2024-01", PartnerID: "p1", Amount: 10},
	}))

	seeded := SeedPartnerBuckets(agg, partners)

	if _, ok := seeded["p2"]; !ok {
		t.Fatal("idle partner missing from seeded aggregate")
	}
	if seeded["p2"].YearTotal != 0 || seeded["p2"].ByMonth == nil {
		t.Fatalf("idle partner bucket malformed: %+v", seeded["p2"])
	}
	if seeded["p1"].YearTotal != 10 {
		t.Fatalf("existing bucket overwritten: %+v", seeded["p1"])
	}
}

func TestSeedPartnerBucketsNilAggregate(t *testing.T) {
	seeded := SeedPartnerBuckets(nil, []Partner{{ID: "p1"}})
	if seeded == nil || seeded["p1"].ByMonth == nil {
		t.Fatalf("nil aggregate not seeded: %v", seeded)
	}
}

func TestWithdrawalEntriesKeepUnknownPartnerKeys(t *testing.T) {
	entries := WithdrawalEntries([]Withdrawal{
		{ID: 7, YearMonth: "2024-03", PartnerID: "ghost", Amount: 40},
	})

	if len(entries) != 1 || entries[0].GroupKey != "ghost" {
		t.Fatalf("unknown partner id not preserved: %v", entries)
	}
}
