package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the concrete vector type and selects its value range.
type Kind int

const (
	KindResource Kind = iota + 1
	KindWeight
)

// Range is an inclusive interval of permitted slot values.
type Range struct {
	Min int
	Max int
}

// ResourceRange bounds measured resource stats.
var ResourceRange = Range{Min: 0, Max: 1000}

// WeightRange bounds experimental weights.
var WeightRange = Range{Min: 0, Max: 100}

// Check returns ErrInvalidArgument if v is outside r.
func (r Range) Check(v int) error {
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%w: value %d outside [%d,%d]", ErrInvalidArgument, v, r.Min, r.Max)
	}
	return nil
}

// Range returns the permitted slot interval for k.
func (k Kind) Range() Range {
	if k == KindWeight {
		return WeightRange
	}
	return ResourceRange
}

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindWeight:
		return "weight"
	default:
		return "unknown"
	}
}

// Vector is the read side shared by ResourceStats and Weights.
type Vector interface {
	Kind() Kind
	Value(s Stat) int
	Values() [StatCount]int
}

// vector is the storage shared by the concrete stat types.
type vector struct {
	kind   Kind
	values [StatCount]int
	frozen bool
}

// ValidateLength returns ErrInvalidArgument unless len(values) is StatCount.
func ValidateLength(values []int) error {
	if values == nil {
		return fmt.Errorf("%w: values", ErrNilArgument)
	}
	if len(values) != StatCount {
		return fmt.Errorf("%w: expected %d values, got %d %v", ErrInvalidArgument, StatCount, len(values), values)
	}
	return nil
}

// ValidateValues checks the length and every slot of values against r.
func ValidateValues(values []int, r Range) error {
	if err := ValidateLength(values); err != nil {
		return err
	}
	for i, v := range values {
		if err := r.Check(v); err != nil {
			return fmt.Errorf("%s: %w", Stat(i), err)
		}
	}
	return nil
}

// SumOf returns the total of values, or -1 if values is nil. Only the
// length is validated.
func SumOf(values []int) (int, error) {
	if values == nil {
		return -1, nil
	}
	if err := ValidateLength(values); err != nil {
		return 0, err
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return total, nil
}

func newVector(kind Kind, values []int) (vector, error) {
	v := vector{kind: kind}
	if err := ValidateValues(values, kind.Range()); err != nil {
		return v, err
	}
	copy(v.values[:], values)
	return v, nil
}

// Kind returns the concrete vector type.
func (v *vector) Kind() Kind { return v.kind }

// Value returns the slot for s; zero for an invalid stat.
func (v *vector) Value(s Stat) int {
	if !s.Valid() {
		return 0
	}
	return v.values[s]
}

// Values returns a copy of all slots in canonical order.
func (v *vector) Values() [StatCount]int { return v.values }

// Slice returns a copy of all slots as a slice.
func (v *vector) Slice() []int {
	out := make([]int, StatCount)
	copy(out, v.values[:])
	return out
}

// Set writes value into the slot for s after range validation.
func (v *vector) Set(s Stat, value int) error {
	if v.frozen {
		return fmt.Errorf("%w: %s vector is immutable", ErrUnsupported, v.kind)
	}
	if !s.Valid() {
		return fmt.Errorf("%w: stat index %d", ErrInvalidArgument, int(s))
	}
	if err := v.kind.Range().Check(value); err != nil {
		return fmt.Errorf("%s: %w", s, err)
	}
	v.values[s] = value
	return nil
}

// Sum returns the total of all slots, never negative.
func (v *vector) Sum() int {
	total := 0
	for _, x := range v.values {
		total += x
	}
	return max(0, total)
}

// NonZero returns the number of slots above zero.
func (v *vector) NonZero() int {
	n := 0
	for _, x := range v.values {
		if x > 0 {
			n++
		}
	}
	return n
}

// HasValues reports whether any slot is above zero.
func (v *vector) HasValues() bool {
	for _, x := range v.values {
		if x > 0 {
			return true
		}
	}
	return false
}

// HasAllValues reports whether stats has a measured value for every stat
// that is non-zero in v. A nil stats is treated as blank.
func (v *vector) HasAllValues(stats *ResourceStats) bool {
	for i, x := range v.values {
		if x <= 0 {
			continue
		}
		if stats == nil || stats.values[i] <= 0 {
			return false
		}
	}
	return true
}

// Compare walks the game order and compares the first differing stat.
// A zero sorts after any non-zero value. This is not consistent with
// Equal and must not back a sorted set or map.
func (v *vector) Compare(other Vector) int {
	for _, s := range gameOrder {
		a, b := v.values[s], other.Value(s)
		if a == b {
			continue
		}
		if a == 0 {
			return 1
		}
		if b == 0 {
			return -1
		}
		return a - b
	}
	return 0
}

// Equal reports whether other has the same kind and identical slots. A
// nil other, typed or not, is never equal.
func (v *vector) Equal(other Vector) bool {
	switch o := other.(type) {
	case *ResourceStats:
		return o != nil && o.kind == v.kind && o.values == v.values
	case *Weights:
		return o != nil && o.kind == v.kind && o.values == v.values
	case nil:
		return false
	default:
		return other.Kind() == v.kind && other.Values() == v.values
	}
}

// Format returns the values in game order separated by commas. Zero
// slots are written as "0" when zeros is set and left empty otherwise,
// so the field positions stay fixed.
func (v *vector) Format(zeros bool) string {
	var sb strings.Builder
	for i, s := range gameOrder {
		if i > 0 {
			sb.WriteByte(',')
		}
		if x := v.values[s]; x != 0 || zeros {
			sb.WriteString(strconv.Itoa(x))
		}
	}
	return sb.String()
}

// Pairs returns "STAT=value" pairs in game order, zeros omitted.
func (v *vector) Pairs(upper bool) string {
	var sb strings.Builder
	for _, s := range gameOrder {
		x := v.values[s]
		if x == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		name := s.String()
		if !upper {
			name = strings.ToLower(name)
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(x))
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (v *vector) String() string { return v.Pairs(true) }

// MarshalJSON writes the slots as a JSON array in canonical order.
func (v *vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.values)
}

func (v *vector) unmarshal(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nv, err := newVector(v.kind, raw)
	if err != nil {
		return err
	}
	v.values = nv.values
	return nil
}

// ParsePairs reads "STAT=value" pairs separated by white space or commas,
// e.g. "OQ=33 SR=33 UT=34", into a slice in canonical order. Stats not
// named stay zero. Values are not range checked.
func ParsePairs(text string) ([]int, error) {
	out := make([]int, StatCount)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	for _, f := range fields {
		name, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed pair %q", ErrInvalidArgument, f)
		}
		s, err := ParseStat(name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q", ErrInvalidArgument, s, val)
		}
		out[s] = n
	}
	return out, nil
}
