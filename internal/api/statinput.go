package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

// statValues accepts stat values in three JSON shapes: an 11-element
// array in canonical order, an object keyed by stat code or description,
// or a pair string such as "OQ=33 SR=33 UT=34".
type statValues []int

func (s *statValues) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	switch data[0] {
	case '[':
		var raw []int
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = raw
	case '{':
		var raw map[string]int
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]int, scoring.StatCount)
		for code, v := range raw {
			st, err := scoring.ParseStat(code)
			if err != nil {
				return err
			}
			out[st] = v
		}
		*s = out
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out, err := scoring.ParsePairs(raw)
		if err != nil {
			return err
		}
		*s = out
	default:
		return errors.New("stat values must be an array, an object or a pair string")
	}
	return nil
}

// asMap renders values keyed by stat code, omitting zeros.
func (s statValues) asMap() map[string]int {
	out := map[string]int{}
	for i, v := range s {
		if v != 0 && i < scoring.StatCount {
			out[scoring.Stat(i).String()] = v
		}
	}
	return out
}
