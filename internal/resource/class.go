package resource

import (
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

// Class is one row of the resource class table. Rows form a tree through
// ParentID; ancestry is resolved when the table is loaded.
type Class struct {
	ID       int
	Token    string
	Name     string
	ParentID int

	min     [scoring.StatCount]int
	max     [scoring.StatCount]int
	reduced bool
	parent  *Class
}

// Min returns the lower bound for s.
func (c *Class) Min(s scoring.Stat) int {
	if !s.Valid() {
		return 0
	}
	return c.min[s]
}

// Max returns the upper bound (cap) for s.
func (c *Class) Max(s scoring.Stat) int {
	if !s.Valid() {
		return 0
	}
	return c.max[s]
}

// Has reports whether the class expects s, i.e. has a non-zero minimum.
func (c *Class) Has(s scoring.Stat) bool {
	return c.Min(s) > 0
}

// ReducedCap reports whether the class is subject to the reduced cap rule.
func (c *Class) ReducedCap() bool { return c.reduced }

// Parent returns the parent class, nil for the root.
func (c *Class) Parent() *Class { return c.parent }

// IsSubclassOf reports whether c equals other or descends from it. Only
// classes of the same table compare.
func (c *Class) IsSubclassOf(other scoring.ClassCaps) bool {
	o, ok := other.(*Class)
	if !ok || o == nil {
		return false
	}
	for p := c; p != nil; p = p.parent {
		if p == o {
			return true
		}
	}
	return false
}

// Ancestors returns the chain from c's parent up to the root.
func (c *Class) Ancestors() []*Class {
	var out []*Class
	for p := c.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Expected returns the stats the class expects in game order.
func (c *Class) Expected() []scoring.Stat {
	var out []scoring.Stat
	for _, s := range scoring.GameOrder() {
		if c.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Class) String() string { return c.Token }

// Bounds is the JSON view of one stat's range.
type Bounds struct {
	Stat scoring.Stat `json:"stat"`
	Min  int          `json:"min"`
	Max  int          `json:"max"`
}

// ClassView is the JSON representation of a class.
type ClassView struct {
	ID         int      `json:"id"`
	Token      string   `json:"token"`
	Name       string   `json:"name"`
	Parent     string   `json:"parent,omitempty"`
	ReducedCap bool     `json:"reduced_cap"`
	Stats      []Bounds `json:"stats"`
}

// View renders c for the API.
func (c *Class) View() ClassView {
	v := ClassView{ID: c.ID, Token: c.Token, Name: c.Name, ReducedCap: c.reduced, Stats: []Bounds{}}
	if c.parent != nil {
		v.Parent = c.parent.Token
	}
	for _, s := range c.Expected() {
		v.Stats = append(v.Stats, Bounds{Stat: s, Min: c.min[s], Max: c.max[s]})
	}
	return v
}
