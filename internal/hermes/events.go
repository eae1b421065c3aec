package hermes

import "time"

// ResourceReportedEvent is a stat report from a survey tool or player.
// Stats are keyed by stat code ("OQ", "SR", ...).
type ResourceReportedEvent struct {
	Name     string         `json:"name"`
	Galaxy   string         `json:"galaxy"`
	Class    string         `json:"class"`
	Stats    map[string]int `json:"stats"`
	Source   string         `json:"source,omitempty"`
	Reporter string         `json:"reporter,omitempty"`
}

type ResourceCreatedEvent struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Galaxy     string `json:"galaxy"`
	Class      string `json:"class"`
}

type ResourceDepletedEvent struct {
	ResourceID string `json:"resource_id"`
	Galaxy     string `json:"galaxy"`
}

// ExperimentMatch is one schematic experiment a resource qualifies for.
type ExperimentMatch struct {
	SchematicID   string  `json:"schematic_id"`
	SchematicName string  `json:"schematic_name"`
	Experiment    string  `json:"experiment"`
	Score         float64 `json:"score"`
}

type ResourceRatedEvent struct {
	ResourceID string            `json:"resource_id"`
	Name       string            `json:"name"`
	Galaxy     string            `json:"galaxy"`
	Class      string            `json:"class"`
	Matches    []ExperimentMatch `json:"matches"`
}

type SyncCompletedEvent struct {
	Galaxy     string        `json:"galaxy"`
	Seen       int           `json:"seen"`
	Inserted   int           `json:"inserted"`
	Depleted   int64         `json:"depleted"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration_ns"`
	FinishedAt time.Time     `json:"finished_at"`
}

type StatsEvent struct {
	TotalResources  int       `json:"total_resources"`
	ActiveResources int       `json:"active_resources"`
	Depleted        int       `json:"depleted"`
	Galaxies        int       `json:"galaxies"`
	Schematics      int       `json:"schematics"`
	Timestamp       time.Time `json:"timestamp"`
}
