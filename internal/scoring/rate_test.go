package scoring

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
)

type fakeResource struct {
	stats *ResourceStats
	class ClassCaps
}

func (r fakeResource) Stats() *ResourceStats { return r.stats }
func (r fakeResource) Class() ClassCaps      { return r.class }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRateSingleStat(t *testing.T) {
	tests := []struct {
		name   string
		capMax int
		want   float64
	}{
		{"cap 1000 scores the raw value", 1000, 500},
		{"cap 500 doubles and clamps", 500, 1000},
		{"cap 800", 800, 625},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := newFakeClass("ore", nil, OQ)
			class.max[OQ] = tt.capMax
			res := fakeResource{stats: statsOf(t, "OQ=500"), class: class}

			got, err := weightsOf(t, "OQ=100").Rate(res, class, RateOptions{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approx(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestRateWithoutCaps(t *testing.T) {
	class := newFakeClass("ore", nil, OQ, SR)
	res := fakeResource{stats: statsOf(t, "OQ=800 SR=400"), class: class}
	got, err := weightsOf(t, "OQ=50 SR=50").Rate(res, nil, RateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 600) {
		t.Errorf("expected 600, got %f", got)
	}
}

func TestRateNoExpectedStat(t *testing.T) {
	class := newFakeClass("gas", nil, OQ)
	res := fakeResource{stats: statsOf(t, "OQ=1000 PE=1000"), class: class}
	for _, opts := range []RateOptions{{}, {ZeroIsMax: true}} {
		r, err := weightsOf(t, "PE=100").Explain(res, class, opts)
		if err != nil {
			t.Fatal(err)
		}
		if r.Score != 0 || r.Eligible {
			t.Errorf("expected ineligible zero score, got %+v", r)
		}
	}
}

func TestRateZeroIsMax(t *testing.T) {
	class := newFakeClass("steel", nil, OQ, SR)
	res := fakeResource{stats: statsOf(t, "OQ=800"), class: class}
	w := weightsOf(t, "OQ=50 SR=50")

	got, err := w.Rate(res, class, RateOptions{ZeroIsMax: true})
	if err != nil {
		t.Fatal(err)
	}
	// OQ: 800*50/100 = 400; SR unmeasured: 50*10 = 500, 500*50/100 = 250
	if !approx(got, 650) {
		t.Errorf("expected 650, got %f", got)
	}

	got, err = w.Rate(res, class, RateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 400) {
		t.Errorf("expected 400 without zeroIsMax, got %f", got)
	}
}

func TestRateRedistributesUncarriedWeight(t *testing.T) {
	class := newFakeClass("copper", nil, OQ)
	res := fakeResource{stats: statsOf(t, "OQ=600"), class: class}
	w := weightsOf(t, "OQ=50 PE=50")

	r, err := w.Explain(res, class, RateOptions{ZeroIsMax: true})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(r.Score, 600) {
		t.Errorf("expected PE weight moved onto OQ for 600, got %f", r.Score)
	}
	if len(r.Axes) != 2 {
		t.Fatalf("expected 2 axes in breakdown, got %d", len(r.Axes))
	}
	for _, ax := range r.Axes {
		if ax.Stat == OQ && !approx(ax.Redistributed, 100) {
			t.Errorf("expected OQ redistributed weight 100, got %f", ax.Redistributed)
		}
		if ax.Stat == PE && ax.Contribution != 0 {
			t.Errorf("expected no PE contribution, got %f", ax.Contribution)
		}
	}

	got, _ := w.Rate(res, class, RateOptions{})
	if !approx(got, 300) {
		t.Errorf("expected 300 without redistribution, got %f", got)
	}
}

func TestRateReducedCap(t *testing.T) {
	class := newFakeClass("jtl copper", nil, OQ)
	class.reduced = true
	alt := newFakeClass("steel", nil, OQ)
	alt.max[OQ] = 500
	res := fakeResource{stats: statsOf(t, "OQ=400"), class: class}
	w := weightsOf(t, "OQ=100")

	got, err := w.Rate(res, class, RateOptions{ReducedCap: true, ReducedCaps: alt})
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 800) {
		t.Errorf("expected 800 with reduced caps, got %f", got)
	}

	got, _ = w.Rate(res, class, RateOptions{ReducedCap: false, ReducedCaps: alt})
	if !approx(got, 400) {
		t.Errorf("expected 400 without the rule, got %f", got)
	}

	class.reduced = false
	got, _ = w.Rate(res, class, RateOptions{ReducedCap: true, ReducedCaps: alt})
	if !approx(got, 400) {
		t.Errorf("expected 400 for a class outside the rule, got %f", got)
	}
}

func TestRateClassCompatibility(t *testing.T) {
	metal := newFakeClass("metal", nil, OQ)
	steel := newFakeClass("steel", metal, OQ)
	gas := newFakeClass("gas", nil, OQ)
	res := fakeResource{stats: statsOf(t, "OQ=500"), class: steel}
	w := weightsOf(t, "OQ=100")

	if _, err := w.Rate(res, metal, RateOptions{}); err != nil {
		t.Errorf("ancestor caps must be accepted: %v", err)
	}
	if _, err := w.Rate(res, steel, RateOptions{}); err != nil {
		t.Errorf("equal caps must be accepted: %v", err)
	}
	if _, err := w.Rate(res, gas, RateOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unrelated caps: expected ErrInvalidArgument, got %v", err)
	}
	metalRes := fakeResource{stats: statsOf(t, "OQ=500"), class: metal}
	if _, err := w.Rate(metalRes, steel, RateOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("descendant caps: expected ErrInvalidArgument, got %v", err)
	}
}

func TestRateNilArguments(t *testing.T) {
	w := weightsOf(t, "OQ=100")
	class := newFakeClass("ore", nil, OQ)
	if _, err := w.Rate(nil, class, RateOptions{}); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil resource: expected ErrNilArgument, got %v", err)
	}
	if _, err := w.Rate(fakeResource{class: class}, class, RateOptions{}); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil stats: expected ErrNilArgument, got %v", err)
	}
	if _, err := w.Rate(fakeResource{stats: BlankStats}, nil, RateOptions{}); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil class: expected ErrNilArgument, got %v", err)
	}
}

func TestRateDoesNotMutateWeights(t *testing.T) {
	class := newFakeClass("copper", nil, OQ)
	w := weightsOf(t, "OQ=50 PE=50")
	before := w.Values()
	_, _ = w.Rate(fakeResource{stats: statsOf(t, "OQ=600"), class: class}, class, RateOptions{ZeroIsMax: true})
	if w.Values() != before {
		t.Errorf("weights changed from %v to %v", before, w.Values())
	}
}

func TestRateIsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		class := &fakeClass{name: "random"}
		stats := EmptyResourceStats()
		weights := make([]int, StatCount)
		for _, s := range AllStats() {
			if rng.Intn(2) == 0 {
				class.min[s] = 1 + rng.Intn(500)
				class.max[s] = class.min[s] + rng.Intn(1001-class.min[s])
			}
			if rng.Intn(3) > 0 {
				_ = stats.Set(s, rng.Intn(1001))
			}
			weights[s] = rng.Intn(40)
		}
		w, _ := NewWeightsRelaxed(weights)
		w.Adjust()
		res := fakeResource{stats: stats, class: class}
		for _, opts := range []RateOptions{{}, {ZeroIsMax: true}} {
			got, err := w.Rate(res, class, opts)
			if err != nil {
				t.Fatalf("iteration %d: %v", i, err)
			}
			if got < 0 || got > MaxScore {
				t.Fatalf("iteration %d: score %f out of bounds for %s / %s", i, got, w, stats)
			}
		}
	}
}

func TestRaterRank(t *testing.T) {
	class := newFakeClass("ore", nil, OQ, SR)
	other := newFakeClass("gas", nil, OQ)
	low := fakeResource{stats: statsOf(t, "OQ=300 SR=300"), class: class}
	high := fakeResource{stats: statsOf(t, "OQ=900 SR=900"), class: class}
	tieA := fakeResource{stats: statsOf(t, "OQ=600 SR=400"), class: class}
	tieB := fakeResource{stats: statsOf(t, "OQ=400 SR=600"), class: class}
	foreign := fakeResource{stats: statsOf(t, "OQ=1000"), class: other}

	r := NewRater(nil, false, false, discardLogger())
	ranked, err := r.Rank(weightsOf(t, "OQ=50 SR=50"), class, []Resource{low, tieB, foreign, high, tieA}, r.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 4 {
		t.Fatalf("expected foreign class skipped, got %d results", len(ranked))
	}
	if ranked[0].Resource != Resource(high) {
		t.Errorf("expected highest first, got %s", ranked[0].Resource.Stats())
	}
	// tieA and tieB both score 500; game order puts OQ before SR
	if ranked[1].Resource != Resource(tieB) || ranked[2].Resource != Resource(tieA) {
		t.Errorf("unexpected tie order: %s then %s", ranked[1].Resource.Stats(), ranked[2].Resource.Stats())
	}
	if ranked[3].Resource != Resource(low) {
		t.Errorf("expected lowest last, got %s", ranked[3].Resource.Stats())
	}
}

func TestRaterOptions(t *testing.T) {
	alt := newFakeClass("steel", nil, OQ)
	r := NewRater(alt, true, true, discardLogger())
	opts := r.Defaults()
	if !opts.ZeroIsMax || !opts.ReducedCap || opts.ReducedCaps != ClassCaps(alt) {
		t.Errorf("unexpected defaults %+v", opts)
	}
	if _, err := r.Explain(nil, fakeResource{}, nil, opts); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil weights: expected ErrNilArgument, got %v", err)
	}
}

func TestComputeFrontier(t *testing.T) {
	class := newFakeClass("ore", nil, OQ, SR)
	mk := func(pairs string) Ranked {
		return Ranked{Resource: fakeResource{stats: statsOf(t, pairs), class: class}}
	}
	a := mk("OQ=900 SR=100")
	b := mk("OQ=100 SR=900")
	c := mk("OQ=500 SR=500")
	d := mk("OQ=400 SR=400 UT=1000") // dominated by c on OQ/SR; UT is unweighted

	frontier := ComputeFrontier(weightsOf(t, "OQ=50 SR=50"), []Ranked{a, b, c, d})
	if len(frontier) != 3 {
		t.Fatalf("expected 3 on frontier, got %d", len(frontier))
	}
	for _, f := range frontier {
		if f.Resource == d.Resource {
			t.Error("dominated candidate on frontier")
		}
	}
}
