package payables

var agingEdges = []struct {
	label string
	max   int
}{
	{"current", 0},
	{"1-30", 30},
	{"31-60", 60},
	{"61-90", 90},
	{"91-120", 120},
	{"120+", 1 << 30},
}

// BuildSummary aggregates open payables into totals and aging buckets
// keyed on the stored days overdue.
func BuildSummary(open []Payable) Summary {
	summary := Summary{Aging: make([]AgingBucket, len(agingEdges))}
	for i, edge := range agingEdges {
		summary.Aging[i].Label = edge.label
	}
	for _, p := range open {
		summary.OpenCount++
		summary.TotalOutstanding += p.Outstanding
		switch p.State {
		case StatePending:
			summary.PendingCount++
		case StatePartial:
			summary.PartialCount++
		case StateOverdue:
			summary.OverdueCount++
			summary.OverdueAmount += p.Outstanding
		}
		for i, edge := range agingEdges {
			if p.DaysOverdue <= edge.max {
				summary.Aging[i].Count++
				summary.Aging[i].Outstanding += p.Outstanding
				break
			}
		}
	}
	return summary
}
