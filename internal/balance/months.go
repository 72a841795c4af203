package balance

import "fmt"

// MonthKeys returns the fixed twelve-month sequence for a fiscal year,
// formatted as YYYY-MM.
func MonthKeys(year int) []string {
	months := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, fmt.Sprintf("%d-%02d", year, m))
	}
	return months
}

// MonthRange returns the first and last calendar day of a month as
// YYYY-MM-DD strings, for querying raw transaction stores.
func MonthRange(year, month int) (string, string) {
	start := fmt.Sprintf("%d-%02d-01", year, month)
	end := fmt.Sprintf("%d-%02d-%02d", year, month, lastDay(year, month))
	return start, end
}

func lastDay(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	}
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 29
	}
	return 28
}

func monthSet(months []string) map[string]struct{} {
	set := make(map[string]struct{}, len(months))
	for _, m := range months {
		set[m] = struct{}{}
	}
	return set
}
