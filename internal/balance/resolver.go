package balance

import (
	"sort"
	"strings"
)

// ResolveRevenueLines orders revenue lines for display. Names from the sort
// order come first, matched case-sensitively against line keys after
// trimming; empty and repeated names are skipped, and names without a
// matching line are dropped. Lines the sort order never mentions are
// appended afterwards, sorted by year total descending with input order
// preserved on ties. Labels are the uppercased keys.
//
// Lines must already be grouped one entry per key; summing duplicate raw
// rows is the upstream aggregation's job. The resolver is deterministic and
// never mutates its inputs.
func ResolveRevenueLines(lines []RevenueLine, sortOrder []string) []RevenueLine {
	byKey := make(map[string]RevenueLine, len(lines))
	for _, line := range lines {
		byKey[line.Key] = line
	}

	resolved := make([]RevenueLine, 0, len(lines))
	used := make(map[string]bool, len(sortOrder))

	for _, name := range sortOrder {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || used[trimmed] {
			continue
		}
		line, ok := byKey[trimmed]
		if !ok {
			continue
		}
		line.Label = strings.ToUpper(line.Key)
		resolved = append(resolved, line)
		used[trimmed] = true
	}

	rest := make([]RevenueLine, 0, len(lines))
	for _, line := range lines {
		if used[line.Key] {
			continue
		}
		line.Label = strings.ToUpper(line.Key)
		rest = append(rest, line)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].YearTotal > rest[j].YearTotal
	})

	return append(resolved, rest...)
}
