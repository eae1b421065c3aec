package scoring

import "fmt"

// MaxScore is the upper bound of a rating.
const MaxScore = 1000.0

// ClassCaps is the per-class bound table a rating is computed against.
type ClassCaps interface {
	Min(s Stat) int
	Max(s Stat) int
	// Has reports whether the class expects the stat.
	Has(s Stat) bool
	// IsSubclassOf reports whether the receiver equals other or descends
	// from it.
	IsSubclassOf(other ClassCaps) bool
	// ReducedCap reports whether the class is subject to the reduced cap
	// rule.
	ReducedCap() bool
}

// Resource is a concrete resource instance that can be rated.
type Resource interface {
	Stats() *ResourceStats
	Class() ClassCaps
}

// RateOptions selects the edge case policy for a rating.
type RateOptions struct {
	// ZeroIsMax treats an expected but unmeasured stat as exactly meeting
	// its weight.
	ZeroIsMax bool
	// ReducedCap substitutes ReducedCaps for the cap lookups when the caps
	// class is subject to the reduced cap rule.
	ReducedCap  bool
	ReducedCaps ClassCaps
}

// AxisResult captures one stat's contribution to a rating.
type AxisResult struct {
	Stat          Stat    `json:"stat"`
	Weight        int     `json:"weight"`
	Redistributed float64 `json:"redistributed"`
	Value         int     `json:"value"`
	Effective     float64 `json:"effective"`
	CapMultiplier float64 `json:"cap_multiplier"`
	Contribution  float64 `json:"contribution"`
	Reason        string  `json:"reason,omitempty"`
}

// Rating is the full output of rating one resource.
type Rating struct {
	Score    float64      `json:"score"`
	Eligible bool         `json:"eligible"`
	Reason   string       `json:"reason,omitempty"`
	Axes     []AxisResult `json:"axes,omitempty"`
}

// Rate returns the desirability of res against w in [0,1000].
func (w *Weights) Rate(res Resource, caps ClassCaps, opts RateOptions) (float64, error) {
	r, err := w.Explain(res, caps, opts)
	if err != nil {
		return 0, err
	}
	return r.Score, nil
}

// Explain rates res against w and returns the per-stat breakdown.
//
// If caps is non-nil the resource's class must equal or descend from it.
// Weights of stats the resource cannot carry are redistributed over the
// remaining stats when ZeroIsMax is set; each stat is then scaled by
// 1000/cap, clamped to 1000 and weighted:
//
//	score = sum( min(1000, value*1000/cap) * weight/100 )
func (w *Weights) Explain(res Resource, caps ClassCaps, opts RateOptions) (Rating, error) {
	if res == nil {
		return Rating{}, fmt.Errorf("%w: resource", ErrNilArgument)
	}
	stats, class := res.Stats(), res.Class()
	if stats == nil {
		return Rating{}, fmt.Errorf("%w: resource stats", ErrNilArgument)
	}
	if class == nil {
		return Rating{}, fmt.Errorf("%w: resource class", ErrNilArgument)
	}
	if caps != nil && !class.IsSubclassOf(caps) {
		return Rating{}, fmt.Errorf("%w: resource class %v is not within caps class %v", ErrInvalidArgument, class, caps)
	}

	if !w.HasExpectedStat(class) {
		return Rating{Reason: "no weighted stat is expected by the resource class"}, nil
	}

	if opts.ReducedCap && caps != nil && caps.ReducedCap() && opts.ReducedCaps != nil {
		caps = opts.ReducedCaps
	}

	var working [StatCount]float64
	for i, v := range w.values {
		working[i] = float64(v)
	}

	adjust := 100.0
	if opts.ZeroIsMax {
		adjust = 0
		for i := range working {
			s := Stat(i)
			if working[i] > 0 && stats.values[i] <= 0 && !class.Has(s) {
				working[i] = 0
			}
			adjust += working[i]
		}
	}
	if adjust <= 0 {
		return Rating{Reason: "no weight left after redistribution"}, nil
	}
	multiplier := 100.0 / adjust

	rating := Rating{Eligible: true}
	var total float64
	for _, s := range gameOrder {
		if working[s] <= 0 {
			if w.values[s] > 0 {
				rating.Axes = append(rating.Axes, AxisResult{
					Stat:   s,
					Weight: w.values[s],
					Reason: "not carried by class, weight redistributed",
				})
			}
			continue
		}
		ax := AxisResult{
			Stat:          s,
			Weight:        w.values[s],
			Redistributed: working[s] * multiplier,
			Value:         stats.values[s],
			CapMultiplier: 1.0,
		}
		ax.Effective = float64(ax.Value)
		if ax.Value == 0 && opts.ZeroIsMax {
			ax.Effective = ax.Redistributed * 10
			ax.Reason = "unmeasured, treated as meeting weight"
		}
		if caps != nil {
			if m := caps.Max(s); m > 0 {
				ax.CapMultiplier = 1000.0 / float64(m)
			}
		}
		ax.Contribution = min(MaxScore, ax.Effective*ax.CapMultiplier) * ax.Redistributed / 100
		total += ax.Contribution
		rating.Axes = append(rating.Axes, ax)
	}

	rating.Score = clamp(total, 0, MaxScore)
	return rating, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
