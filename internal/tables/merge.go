package tables

type mergeKey struct {
	page int
	rows int
	cols int
}

// Merge deduplicates pooled tables. Tables share identity when they agree on
// (page, rowCount, colCount); within a group the highest accuracy wins and
// ties keep the earliest-discovered table, which makes the merge
// deterministic. Merging an already-merged set is a no-op.
func Merge(pooled []Table) []Table {
	if len(pooled) == 0 {
		return nil
	}

	order := make([]mergeKey, 0, len(pooled))
	best := make(map[mergeKey]Table, len(pooled))

	for _, t := range pooled {
		key := mergeKey{page: t.PageNumber, rows: t.RowCount, cols: t.ColCount}
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = t
			continue
		}
		if t.Accuracy > existing.Accuracy {
			best[key] = t
		}
	}

	out := make([]Table, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
