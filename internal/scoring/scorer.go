package scoring

import (
	"errors"
	"log/slog"
	"sort"
)

// Ranked pairs a candidate with its rating.
type Ranked struct {
	Resource Resource
	Rating   Rating
}

// Rater rates resources against weight profiles with a fixed reduced cap
// source and default policy.
type Rater struct {
	reducedCaps ClassCaps
	zeroIsMax   bool
	reducedCap  bool
	logger      *slog.Logger
}

// NewRater creates a Rater. reducedCaps may be nil, which disables the
// reduced cap substitution.
func NewRater(reducedCaps ClassCaps, zeroIsMax, reducedCap bool, logger *slog.Logger) *Rater {
	return &Rater{
		reducedCaps: reducedCaps,
		zeroIsMax:   zeroIsMax,
		reducedCap:  reducedCap,
		logger:      logger,
	}
}

// Defaults returns the configured policy.
func (r *Rater) Defaults() RateOptions {
	return r.Options(r.zeroIsMax, r.reducedCap)
}

// Options returns a policy bound to this rater's reduced cap source.
func (r *Rater) Options(zeroIsMax, reducedCap bool) RateOptions {
	return RateOptions{
		ZeroIsMax:   zeroIsMax,
		ReducedCap:  reducedCap,
		ReducedCaps: r.reducedCaps,
	}
}

// Rate returns the score of res against w.
func (r *Rater) Rate(w *Weights, res Resource, caps ClassCaps, opts RateOptions) (float64, error) {
	rating, err := r.Explain(w, res, caps, opts)
	return rating.Score, err
}

// Explain returns the full breakdown of rating res against w.
func (r *Rater) Explain(w *Weights, res Resource, caps ClassCaps, opts RateOptions) (Rating, error) {
	if w == nil {
		return Rating{}, ErrNilArgument
	}
	if !w.IsValid() {
		r.logger.Warn("rating with out of bounds weights", "weights", w.String(), "sum", w.Sum())
	}
	rating, err := w.Explain(res, caps, opts)
	if err != nil {
		return rating, err
	}
	r.logger.Debug("rated resource", "weights", w.String(), "score", rating.Score, "eligible", rating.Eligible)
	return rating, nil
}

// Rank rates every candidate and returns them best first. Candidates
// whose class is outside caps are skipped. Ties are broken by Compare on
// the measured stats.
func (r *Rater) Rank(w *Weights, caps ClassCaps, candidates []Resource, opts RateOptions) ([]Ranked, error) {
	if w == nil {
		return nil, ErrNilArgument
	}
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		rating, err := w.Explain(c, caps, opts)
		if errors.Is(err, ErrInvalidArgument) {
			r.logger.Debug("skipping candidate outside caps class", "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Ranked{Resource: c, Rating: rating})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating.Score != out[j].Rating.Score {
			return out[i].Rating.Score > out[j].Rating.Score
		}
		return out[i].Resource.Stats().Compare(out[j].Resource.Stats()) < 0
	})
	return out, nil
}
