package query

// ComposeFilters merges the globally configured filter AST with a query's
// own filters. Global filters run first so their explanations lead, and
// the "ignore global query" directive drops them entirely. The returned
// slice is freshly allocated; neither input is mutated.
func ComposeFilters(q *Query, global *Query) []*FilterNode {
	if global == nil || q.IgnoreGlobal {
		return append([]*FilterNode(nil), q.Filters...)
	}

	merged := make([]*FilterNode, 0, len(global.Filters)+len(q.Filters))
	merged = append(merged, global.Filters...)
	merged = append(merged, q.Filters...)

	return merged
}
