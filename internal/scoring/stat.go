package scoring

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Stat is one of the resource statistics. The numeric value is the
// canonical index, alphabetical by code.
type Stat int

const (
	CD Stat = iota // conductivity
	CR             // cold resistance
	DR             // decay resistance
	ER             // entangle resistance
	FL             // flavor
	HR             // heat resistance
	MA             // malleability
	OQ             // overall quality
	PE             // potential energy
	SR             // shock resistance
	UT             // unit toughness
)

// StatCount sizes every stat vector.
const StatCount = 11

var statCodes = [StatCount]string{"CD", "CR", "DR", "ER", "FL", "HR", "MA", "OQ", "PE", "SR", "UT"}

var statDescriptions = [StatCount]string{
	"Conductivity",
	"Cold Resistance",
	"Decay Resistance",
	"Entangle Resistance",
	"Flavor",
	"Heat Resistance",
	"Malleability",
	"Overall Quality",
	"Potential Energy",
	"Shock Resistance",
	"Unit Toughness",
}

// gameOrder is the order the game client lists stats in.
var gameOrder = [StatCount]Stat{ER, CR, CD, DR, FL, HR, MA, PE, OQ, SR, UT}

var folder = cases.Fold()

// AllStats returns every stat in canonical index order.
func AllStats() []Stat {
	out := make([]Stat, StatCount)
	for i := range out {
		out[i] = Stat(i)
	}
	return out
}

// GameOrder returns every stat in the order used by the game client.
// The returned slice is a fresh copy.
func GameOrder() []Stat {
	out := make([]Stat, StatCount)
	copy(out, gameOrder[:])
	return out
}

// Index returns the canonical index of s, 0..10.
func (s Stat) Index() int { return int(s) }

// Valid reports whether s is one of the 11 stats.
func (s Stat) Valid() bool { return s >= 0 && s < StatCount }

// String returns the two-letter code.
func (s Stat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stat(%d)", int(s))
	}
	return statCodes[s]
}

// Description returns the human readable name, e.g. "Overall Quality".
func (s Stat) Description() string {
	if !s.Valid() {
		return s.String()
	}
	return statDescriptions[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Stat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: stat index %d", ErrInvalidArgument, int(s))
	}
	return []byte(statCodes[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stat) UnmarshalText(b []byte) error {
	v, err := ParseStat(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStat resolves a stat from its code or description. Matching is
// case-insensitive and ignores surrounding white space.
func ParseStat(name string) (Stat, error) {
	key := folder.String(strings.TrimSpace(name))
	for i := 0; i < StatCount; i++ {
		if key == folder.String(statCodes[i]) || key == folder.String(statDescriptions[i]) {
			return Stat(i), nil
		}
	}
	if hint := suggestStat(key); hint != "" {
		return 0, fmt.Errorf("%w: unknown stat %q, did you mean %s?", ErrInvalidArgument, name, hint)
	}
	return 0, fmt.Errorf("%w: unknown stat %q", ErrInvalidArgument, name)
}

func suggestStat(key string) string {
	if len(key) < 3 {
		return ""
	}
	best, bestDist := "", 4
	for i := 0; i < StatCount; i++ {
		d := levenshtein.ComputeDistance(key, folder.String(statDescriptions[i]))
		if d < bestDist {
			best, bestDist = statDescriptions[i], d
		}
	}
	return best
}
