package metrics

import "sort"

// ErrorBucket is the failure count for one error label.
type ErrorBucket struct {
	Label string
	Count int
}

// FlattenErrors converts an error label->count map into rows sorted by
// descending count, then by label for stability.
func FlattenErrors(errors map[string]int) []ErrorBucket {
	if len(errors) == 0 {
		return nil
	}
	rows := make([]ErrorBucket, 0, len(errors))
	for label, count := range errors {
		rows = append(rows, ErrorBucket{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
