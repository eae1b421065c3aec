package resource

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

//go:embed classes.yaml
var builtinClasses []byte

// ErrNotLoaded is returned by lookups on a registry that has no table.
var ErrNotLoaded = errors.New("class registry not loaded")

// ErrUnknownClass is returned when a token or name does not resolve.
var ErrUnknownClass = errors.New("unknown resource class")

type tableFile struct {
	ReducedCaps string     `yaml:"reduced_caps"`
	Classes     []classRow `yaml:"classes"`
}

type classRow struct {
	ID         int              `yaml:"id"`
	Token      string           `yaml:"token"`
	Name       string           `yaml:"name"`
	Parent     int              `yaml:"parent"`
	ReducedCap bool             `yaml:"reduced_cap"`
	Stats      map[string][]int `yaml:"stats"`
}

// Registry maps class ids, tokens and names to their bound tables. It is
// constructed empty and must be loaded once before use; after Load it is
// read-only and safe for concurrent lookups.
type Registry struct {
	mu       sync.RWMutex
	loaded   bool
	byID     map[int]*Class
	byToken  map[string]*Class
	byName   map[string]*Class
	children map[int][]*Class
	reduced  *Class
}

var fold = cases.Fold()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Builtin returns a registry loaded with the embedded table.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadBuiltin(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadBuiltin loads the embedded table.
func (r *Registry) LoadBuiltin() error {
	return r.Load(bytes.NewReader(builtinClasses))
}

// LoadFile loads a YAML table from path.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open class table: %w", err)
	}
	defer f.Close()
	return r.Load(f)
}

// Load parses and validates a YAML table. A registry can be loaded once.
func (r *Registry) Load(rd io.Reader) error {
	var tf tableFile
	if err := yaml.NewDecoder(rd).Decode(&tf); err != nil {
		return fmt.Errorf("parse class table: %w", err)
	}

	byID := make(map[int]*Class, len(tf.Classes))
	byToken := make(map[string]*Class, len(tf.Classes))
	byName := make(map[string]*Class, len(tf.Classes))
	statRows := make(map[int]map[string][]int, len(tf.Classes))

	for _, row := range tf.Classes {
		if row.Token == "" {
			return fmt.Errorf("class %d: empty token", row.ID)
		}
		if _, dup := byID[row.ID]; dup {
			return fmt.Errorf("class %s: duplicate id %d", row.Token, row.ID)
		}
		key := fold.String(row.Token)
		if _, dup := byToken[key]; dup {
			return fmt.Errorf("class %d: duplicate token %q", row.ID, row.Token)
		}
		c := &Class{ID: row.ID, Token: row.Token, Name: row.Name, ParentID: row.Parent, reduced: row.ReducedCap}
		byID[c.ID] = c
		byToken[key] = c
		if c.Name != "" {
			byName[fold.String(c.Name)] = c
		}
		statRows[c.ID] = row.Stats
	}

	for _, c := range byID {
		if c.ParentID == 0 {
			continue
		}
		p, ok := byID[c.ParentID]
		if !ok {
			return fmt.Errorf("class %s: unknown parent %d", c.Token, c.ParentID)
		}
		c.parent = p
	}
	for _, c := range byID {
		seen := map[*Class]bool{}
		for p := c; p != nil; p = p.parent {
			if seen[p] {
				return fmt.Errorf("class %s: parent cycle", c.Token)
			}
			seen[p] = true
		}
	}

	resolved := make(map[int]bool, len(byID))
	var resolve func(c *Class) error
	resolve = func(c *Class) error {
		if resolved[c.ID] {
			return nil
		}
		stats := statRows[c.ID]
		if len(stats) == 0 {
			if c.parent != nil {
				if err := resolve(c.parent); err != nil {
					return err
				}
				c.min, c.max = c.parent.min, c.parent.max
			}
			resolved[c.ID] = true
			return nil
		}
		for code, b := range stats {
			s, err := scoring.ParseStat(code)
			if err != nil {
				return fmt.Errorf("class %s: %w", c.Token, err)
			}
			if len(b) != 2 {
				return fmt.Errorf("class %s: %s bounds must be [min, max]", c.Token, s)
			}
			if err := scoring.ResourceRange.Check(b[0]); err != nil {
				return fmt.Errorf("class %s: %s min: %w", c.Token, s, err)
			}
			if err := scoring.ResourceRange.Check(b[1]); err != nil {
				return fmt.Errorf("class %s: %s max: %w", c.Token, s, err)
			}
			if b[0] > b[1] {
				return fmt.Errorf("class %s: %s min %d above max %d", c.Token, s, b[0], b[1])
			}
			c.min[s], c.max[s] = b[0], b[1]
		}
		resolved[c.ID] = true
		return nil
	}
	for _, c := range byID {
		if err := resolve(c); err != nil {
			return err
		}
	}

	children := make(map[int][]*Class)
	for _, c := range byID {
		if c.parent != nil {
			children[c.parent.ID] = append(children[c.parent.ID], c)
		}
	}
	for id := range children {
		sort.Slice(children[id], func(i, j int) bool { return children[id][i].ID < children[id][j].ID })
	}

	var reduced *Class
	if tf.ReducedCaps != "" {
		reduced = byToken[fold.String(tf.ReducedCaps)]
		if reduced == nil {
			return fmt.Errorf("reduced caps: %w %q", ErrUnknownClass, tf.ReducedCaps)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return errors.New("class registry already loaded")
	}
	r.byID, r.byToken, r.byName, r.children, r.reduced = byID, byToken, byName, children, reduced
	r.loaded = true
	return nil
}

// Loaded reports whether a table has been loaded.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Len returns the number of classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ByID returns the class with id, or nil.
func (r *Registry) ByID(id int) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// ByToken returns the class with token, or nil. Matching ignores case.
func (r *Registry) ByToken(token string) *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byToken[fold.String(strings.TrimSpace(token))]
}

// Lookup resolves a token or display name. Unknown input fails with
// ErrUnknownClass and, when one is close, a suggestion.
func (r *Registry) Lookup(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, ErrNotLoaded
	}
	key := fold.String(strings.TrimSpace(name))
	if c, ok := r.byToken[key]; ok {
		return c, nil
	}
	if c, ok := r.byName[key]; ok {
		return c, nil
	}
	if hint := r.suggest(key); hint != "" {
		return nil, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownClass, name, hint)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownClass, name)
}

func (r *Registry) suggest(key string) string {
	if len(key) < 3 {
		return ""
	}
	var candidates []string
	for _, c := range r.byID {
		candidates = append(candidates, c.Token)
		if c.Name != "" {
			candidates = append(candidates, c.Name)
		}
	}
	sort.Strings(candidates)

	best, bestDist := "", suggestLimit(len(key))+1
	for _, cand := range candidates {
		if d := levenshtein.ComputeDistance(key, fold.String(cand)); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Children returns the direct children of id ordered by id.
func (r *Registry) Children(id int) []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Class, len(r.children[id]))
	copy(out, r.children[id])
	return out
}

// Descendants returns every class below id, depth first.
func (r *Registry) Descendants(id int) []*Class {
	var out []*Class
	for _, c := range r.Children(id) {
		out = append(out, c)
		out = append(out, r.Descendants(c.ID)...)
	}
	return out
}

// All returns every class ordered by id.
func (r *Registry) All() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Class, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReducedCaps returns the fixed caps source substituted for classes under
// the reduced cap rule, or nil if the table names none.
func (r *Registry) ReducedCaps() *Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reduced
}

// ReducedCapsSource returns ReducedCaps as a scoring.ClassCaps, nil when
// the table names none.
func (r *Registry) ReducedCapsSource() scoring.ClassCaps {
	if c := r.ReducedCaps(); c != nil {
		return c
	}
	return nil
}
