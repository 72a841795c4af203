package balance

import "testing"

func TestResolveRevenueLinesOrdersSortedThenByTotal(t *testing.T) {
	lines := []RevenueLine{
		line("A", map[string]float64{"2024-01": 100}),
		line("B", map[string]float64{"2024-01": 50}),
		line("C", map[string]float64{"2024-01": 200}),
	}

	resolved := ResolveRevenueLines(lines, []string{"B", "A"})

	keys := make([]string, 0, len(resolved))
	for _, l := range resolved {
		keys = append(keys, l.Key)
	}
	want := []string{"B", "A", "C"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("resolved order %v, want %v", keys, want)
		}
	}
}

func TestResolveRevenueLinesEmptySortOrderSortsByTotal(t *testing.T) {
	lines := []RevenueLine{
		line("Low", map[string]float64{"2024-01": 10}),
		line("High", map[string]float64{"2024-01": 900}),
		line("Mid", map[string]float64{"2024-01": 400}),
	}

	resolved := ResolveRevenueLines(lines, nil)

	if resolved[0].Key != "High" || resolved[1].Key != "Mid" || resolved[2].Key != "Low" {
		t.Fatalf("unexpected order: %s, %s, %s", resolved[0].Key, resolved[1].Key, resolved[2].Key)
	}
}

func TestResolveRevenueLinesSkipsUnknownEmptyAndDuplicateNames(t *testing.T) {
	lines := []RevenueLine{
		line("A", map[string]float64{"2024-01": 100}),
		line("B", map[string]float64{"2024-01": 200}),
	}

	resolved := ResolveRevenueLines(lines, []string{"  ", "Ghost", "A", " A ", "A"})

	if len(resolved) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(resolved))
	}
	if resolved[0].Key != "A" || resolved[1].Key != "B" {
		t.Fatalf("unexpected order: %s, %s", resolved[0].Key, resolved[1].Key)
	}
}

func TestResolveRevenueLinesUppercasesLabels(t *testing.T) {
	lines := []RevenueLine{line("Fenix a320", map[string]float64{"2024-01": 100})}

	resolved := ResolveRevenueLines(lines, nil)

	if resolved[0].Label != "FENIX A320" {
		t.Fatalf("label got %q want %q", resolved[0].Label, "FENIX A320")
	}
	if resolved[0].Key != "Fenix a320" {
		t.Fatalf("key must keep original casing, got %q", resolved[0].Key)
	}
}

func TestResolveRevenueLinesTieBreakKeepsInputOrder(t *testing.T) {
	lines := []RevenueLine{
		line("First", map[string]float64{"2024-01": 100}),
		line("Second", map[string]float64{"2024-02": 100}),
	}

	resolved := ResolveRevenueLines(lines, nil)

	if resolved[0].Key != "First" || resolved[1].Key != "Second" {
		t.Fatalf("tie broke input order: %s, %s", resolved[0].Key, resolved[1].Key)
	}
}

func TestResolveRevenueLinesDoesNotMutateInput(t *testing.T) {
	lines := []RevenueLine{
		line("A", map[string]float64{"2024-01": 10}),
		line("B", map[string]float64{"2024-01": 20}),
	}

	_ = ResolveRevenueLines(lines, []string{"B"})

	if lines[0].Key != "A" || lines[1].Key != "B" || lines[0].Label != "" {
		t.Fatalf("input mutated: %+v", lines)
	}
}
