package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resource is one reported spawn of a resource in a galaxy.
type Resource struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Galaxy     string    `json:"galaxy"`
	ClassToken string    `json:"class"`

	// Stats is indexed by canonical stat order, 11 slots in [0,1000].
	Stats []int `json:"stats"`

	Source   string `json:"source,omitempty"`
	Depleted bool   `json:"depleted"`

	// Timestamps
	ReportedAt time.Time  `json:"reported_at"`
	DepletedAt *time.Time `json:"depleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Experiment is one experimental group of a schematic: a weight profile
// applied to resources of a class.
type Experiment struct {
	Name       string `json:"name"`
	ClassToken string `json:"class"`
	Weights    []int  `json:"weights"`
}

type Schematic struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category,omitempty"`
	Experiments []Experiment `json:"experiments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DefaultListLimit caps ListResources when the filter sets no limit.
const DefaultListLimit = 500

type ResourceFilter struct {
	Galaxy          string
	Classes         []string
	IncludeDepleted bool
	Limit           int
	Offset          int
}

type Stats struct {
	TotalResources  int `json:"total_resources"`
	ActiveResources int `json:"active_resources"`
	Depleted        int `json:"depleted"`
	Galaxies        int `json:"galaxies"`
	Schematics      int `json:"schematics"`
}

type Store interface {
	CreateResource(ctx context.Context, r *Resource) error
	// UpsertResource inserts r or refreshes the stats of the resource with
	// the same galaxy and name. It reports whether a row was inserted.
	UpsertResource(ctx context.Context, r *Resource) (bool, error)
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	ListResources(ctx context.Context, filter ResourceFilter) ([]*Resource, error)
	MarkDepleted(ctx context.Context, id uuid.UUID) error
	// DepleteMissing marks every active resource of galaxy whose name is
	// not in seen as depleted and returns the ids of the changed rows.
	DepleteMissing(ctx context.Context, galaxy string, seen []string) ([]uuid.UUID, error)

	CreateSchematic(ctx context.Context, s *Schematic) error
	GetSchematic(ctx context.Context, id uuid.UUID) (*Schematic, error)
	ListSchematics(ctx context.Context, category string) ([]*Schematic, error)
	DeleteSchematic(ctx context.Context, id uuid.UUID) error

	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}
