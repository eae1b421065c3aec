package scoring

// ComputeFrontier returns the ranked candidates that are not dominated on
// the stats weighted by w. A candidate is dominated if another one has a
// value >= on every weighted stat and > on at least one. Input order is
// preserved. O(n^2), fine for a galaxy's spawn list.
func ComputeFrontier(w *Weights, candidates []Ranked) []Ranked {
	if w == nil || len(candidates) <= 1 {
		return candidates
	}

	var axes []Stat
	for _, s := range gameOrder {
		if w.values[s] > 0 {
			axes = append(axes, s)
		}
	}

	var frontier []Ranked
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(axes, candidates[j].Resource.Stats(), candidates[i].Resource.Stats()) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b on axes.
func dominates(axes []Stat, a, b *ResourceStats) bool {
	better := false
	for _, s := range axes {
		av, bv := a.Value(s), b.Value(s)
		if av < bv {
			return false
		}
		if av > bv {
			better = true
		}
	}
	return better
}
