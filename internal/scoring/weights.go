package scoring

import (
	"fmt"
	"math"
)

// Integer weights rarely add up to exactly 100, so a profile is valid when
// its total lies within these bounds.
const (
	MinWeightSum = 98
	MaxWeightSum = 102
)

// Weights is the experimental weight distribution of a schematic. Each
// slot is in [0,100] and the total should lie in [98,102].
type Weights struct {
	vector
}

// NewWeights validates the range of every slot and the total.
func NewWeights(values []int) (*Weights, error) {
	w, err := NewWeightsRelaxed(values)
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// NewWeightsRelaxed validates only the range of every slot. It is meant
// for transient, user-edited profiles; the caller must fix the total
// before rating with it.
func NewWeightsRelaxed(values []int) (*Weights, error) {
	v, err := newVector(KindWeight, values)
	if err != nil {
		return nil, err
	}
	return &Weights{v}, nil
}

// IsValid reports whether the total lies in [98,102].
func (w *Weights) IsValid() bool {
	s := w.Sum()
	return s >= MinWeightSum && s <= MaxWeightSum
}

// Validate returns ErrInvalidArgument unless IsValid.
func (w *Weights) Validate() error {
	if !w.IsValid() {
		return fmt.Errorf("%w: weights sum to %d, must be within [%d,%d]", ErrInvalidArgument, w.Sum(), MinWeightSum, MaxWeightSum)
	}
	return nil
}

// ValidWeights checks length, per-slot range and total of values.
func ValidWeights(values []int) bool {
	if ValidateValues(values, WeightRange) != nil {
		return false
	}
	s, _ := SumOf(values)
	return s >= MinWeightSum && s <= MaxWeightSum
}

// Adjust rescales every non-zero weight by 100/Sum, rounding each to the
// nearest integer. The result is not forced into [98,102].
func (w *Weights) Adjust() {
	sum := w.Sum()
	if sum == 0 {
		return
	}
	factor := 100.0 / float64(sum)
	for i, v := range w.values {
		if v > 0 {
			w.values[i] = int(math.Round(float64(v) * factor))
		}
	}
}

// HasExpectedStat reports whether at least one stat carries weight here
// and is expected by class. A resource reported without an expected stat
// cannot satisfy this even if the stat exists in game.
func (w *Weights) HasExpectedStat(class ClassCaps) bool {
	if class == nil {
		return false
	}
	for i, v := range w.values {
		if v > 0 && class.Has(Stat(i)) {
			return true
		}
	}
	return false
}

// Wider returns the profile whose set of weighted stats contains the
// other's, ignoring the weight values. It returns nil if either argument
// is nil or neither set contains the other. Identical sets return a.
func Wider(a, b *Weights) *Weights {
	if a == nil || b == nil {
		return nil
	}
	wide, narrow := a, b
	if b.NonZero() > a.NonZero() {
		wide, narrow = b, a
	}
	for i, v := range narrow.values {
		if v > 0 && wide.values[i] <= 0 {
			return nil
		}
	}
	return wide
}

// UnmarshalJSON reads an 11-element array, validating the range only.
func (w *Weights) UnmarshalJSON(data []byte) error {
	w.kind = KindWeight
	return w.unmarshal(data)
}
