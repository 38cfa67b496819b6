package analysis

// SCCSchedule is one entry of a RelationSchedule (spec.md §4.3 "Relation
// schedule"): the relations an SCC computes, plus the predecessor
// relations whose last use is in this SCC and may be purged afterwards.
type SCCSchedule struct {
	SCCIndex  int
	Computed  []string
	Droppable []string
}

// BuildRelationSchedule walks the topological SCC order and, for each SCC,
// determines which predecessor relations are no longer needed by any
// later SCC (their "last use" is this one).
func BuildRelationSchedule(g *SCCGraph, order *TopoOrder) []SCCSchedule {
	n := len(order.Order)
	// lastUse[rel] = position in order.Order (not SCC index) of the last
	// SCC that reads rel as one of its dependencies.
	lastUse := make(map[string]int)
	posOf := make(map[int]int, n)
	for pos, sccIdx := range order.Order {
		posOf[sccIdx] = pos
	}
	for sccIdx, deps := range g.Successors {
		pos := posOf[sccIdx]
		for depSCC := range deps {
			for _, rel := range g.Components[depSCC] {
				if cur, ok := lastUse[rel]; !ok || pos > cur {
					lastUse[rel] = pos
				}
			}
		}
	}

	out := make([]SCCSchedule, 0, n)
	for pos, sccIdx := range order.Order {
		sched := SCCSchedule{
			SCCIndex: sccIdx,
			Computed: append([]string(nil), g.Components[sccIdx]...),
		}
		for rel, lastPos := range lastUse {
			if lastPos == pos {
				sched.Droppable = append(sched.Droppable, rel)
			}
		}
		out = append(out, sched)
	}
	return out
}
