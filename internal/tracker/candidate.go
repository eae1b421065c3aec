package tracker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// Candidate adapts a stored resource for rating.
type Candidate struct {
	Resource *store.Resource
	stats    *scoring.ResourceStats
	class    *resource.Class
}

func (c *Candidate) Stats() *scoring.ResourceStats { return c.stats }
func (c *Candidate) Class() scoring.ClassCaps      { return c.class }

// ResourceClass returns the concrete class of the candidate.
func (c *Candidate) ResourceClass() *resource.Class { return c.class }

// NewCandidate resolves the class of r and validates its stats.
func NewCandidate(reg *resource.Registry, r *store.Resource) (*Candidate, error) {
	class, err := reg.Lookup(r.ClassToken)
	if err != nil {
		return nil, err
	}
	stats, err := scoring.NewResourceStats(r.Stats)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", r.Name, err)
	}
	return &Candidate{Resource: r, stats: stats, class: class}, nil
}

// Candidates converts rs, skipping resources whose class or stats do not
// resolve.
func Candidates(reg *resource.Registry, rs []*store.Resource, logger *slog.Logger) []scoring.Resource {
	out := make([]scoring.Resource, 0, len(rs))
	for _, r := range rs {
		c, err := NewCandidate(reg, r)
		if err != nil {
			logger.Warn("skipping unratable resource", "resource_id", r.ID, "name", r.Name, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Report is one stat report for a resource, from the spawn list, the bus
// or the API. Stats are keyed by stat code or description.
type Report struct {
	Name   string         `json:"name"`
	Galaxy string         `json:"galaxy"`
	Class  string         `json:"class"`
	Stats  map[string]int `json:"stats"`
	Source string         `json:"source,omitempty"`
}

// Resolve validates the report against reg and returns the resource to
// store with its canonical class token.
func (r Report) Resolve(reg *resource.Registry) (*store.Resource, error) {
	name, galaxy := strings.TrimSpace(r.Name), strings.TrimSpace(r.Galaxy)
	if name == "" {
		return nil, fmt.Errorf("%w: report without name", scoring.ErrInvalidArgument)
	}
	if galaxy == "" {
		return nil, fmt.Errorf("%w: report %s without galaxy", scoring.ErrInvalidArgument, name)
	}
	class, err := reg.Lookup(r.Class)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}

	values := make([]int, scoring.StatCount)
	for code, v := range r.Stats {
		s, err := scoring.ParseStat(code)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", name, err)
		}
		values[s] = v
	}
	if err := scoring.ValidateValues(values, scoring.ResourceRange); err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}

	return &store.Resource{
		Name:       name,
		Galaxy:     galaxy,
		ClassToken: class.Token,
		Stats:      values,
		Source:     r.Source,
	}, nil
}
