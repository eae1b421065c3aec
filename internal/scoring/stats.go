package scoring

// ResourceStats holds the measured stats of one resource, each in [0,1000].
type ResourceStats struct {
	vector
}

// BlankStats is the shared "no measured data" instance. Set on it fails
// with ErrUnsupported.
var BlankStats = &ResourceStats{vector{kind: KindResource, frozen: true}}

// NewResourceStats validates values and copies them into a new vector.
func NewResourceStats(values []int) (*ResourceStats, error) {
	v, err := newVector(KindResource, values)
	if err != nil {
		return nil, err
	}
	return &ResourceStats{v}, nil
}

// EmptyResourceStats returns a mutable all-zero vector.
func EmptyResourceStats() *ResourceStats {
	return &ResourceStats{vector{kind: KindResource}}
}

// ResourceStatsOf builds stats from an array already known to be in range,
// such as one produced by Values. It fails on out-of-range slots.
func ResourceStatsOf(values [StatCount]int) (*ResourceStats, error) {
	return NewResourceStats(values[:])
}

// IsBlank reports whether r is the shared blank instance.
func (r *ResourceStats) IsBlank() bool { return r == BlankStats }

// UnmarshalJSON reads an 11-element array, validating the range.
func (r *ResourceStats) UnmarshalJSON(data []byte) error {
	if r.frozen {
		return ErrUnsupported
	}
	r.kind = KindResource
	return r.unmarshal(data)
}
