package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Assay/internal/config"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
	"github.com/MikeSquared-Agency/Assay/internal/swgcraft"
)

// Tracker keeps the stored spawn list in step with the remote resource
// database and rates every new resource against the known schematics.
type Tracker struct {
	store    store.Store
	hermes   hermes.Client
	swg      swgcraft.Client
	registry *resource.Registry
	rater    *scoring.Rater
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *slog.Logger

	// one sync at a time, whether from the ticker or SyncNow
	syncMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// SyncResult summarizes one galaxy sync.
type SyncResult struct {
	Galaxy   string        `json:"galaxy"`
	Seen     int           `json:"seen"`
	Inserted int           `json:"inserted"`
	Depleted int64         `json:"depleted"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// New creates a Tracker. h and swg may be nil: without a bus nothing is
// published, without a spawn source syncs are no-ops.
func New(s store.Store, h hermes.Client, swg swgcraft.Client, reg *resource.Registry, rater *scoring.Rater, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:    s,
		hermes:   h,
		swg:      swg,
		registry: reg,
		rater:    rater,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.statsLoop(ctx)
	if t.cfg.Tracker.Enabled && t.swg != nil {
		t.wg.Add(1)
		go t.syncLoop(ctx)
	}
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

func (t *Tracker) syncLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.SyncInterval())
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.SyncNow(ctx); err != nil {
				t.logger.Error("spawn sync failed", "error", err)
			}
		}
	}
}

func (t *Tracker) statsLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.StatsInterval())
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.publishStats(ctx)
		}
	}
}

func (t *Tracker) publishStats(ctx context.Context) {
	stats, err := t.store.GetStats(ctx)
	if err != nil {
		t.logger.Error("failed to get stats", "error", err)
		return
	}
	t.metrics.SetActive(stats.ActiveResources)
	if t.hermes != nil {
		_ = t.hermes.Publish(hermes.SubjectAssayStats, hermes.StatsEvent{
			TotalResources:  stats.TotalResources,
			ActiveResources: stats.ActiveResources,
			Depleted:        stats.Depleted,
			Galaxies:        stats.Galaxies,
			Schematics:      stats.Schematics,
			Timestamp:       time.Now(),
		})
	}
}

// SyncNow syncs the configured galaxy, or every active galaxy the spawn
// source knows when none is configured.
func (t *Tracker) SyncNow(ctx context.Context) ([]SyncResult, error) {
	if t.swg == nil {
		return nil, nil
	}
	galaxies := []string{t.cfg.SWGCraft.Galaxy}
	if t.cfg.SWGCraft.Galaxy == "" {
		var err error
		galaxies, err = t.swg.Galaxies(ctx)
		if err != nil {
			return nil, fmt.Errorf("list galaxies: %w", err)
		}
	}

	var results []SyncResult
	for _, g := range galaxies {
		res, err := t.Sync(ctx, g)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// Sync pulls the current spawns of galaxy, upserts them, marks vanished
// resources depleted and rates the new ones.
func (t *Tracker) Sync(ctx context.Context, galaxy string) (*SyncResult, error) {
	t.syncMu.Lock()
	defer t.syncMu.Unlock()

	start := time.Now()
	res, err := t.sync(ctx, galaxy)
	t.metrics.ObserveSync(galaxy, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	t.logger.Info("spawn sync completed", "galaxy", galaxy, "seen", res.Seen,
		"inserted", res.Inserted, "depleted", res.Depleted, "skipped", res.Skipped, "duration", res.Duration)
	if t.hermes != nil {
		_ = t.hermes.Publish(hermes.SubjectSyncCompleted(galaxy), hermes.SyncCompletedEvent{
			Galaxy:     galaxy,
			Seen:       res.Seen,
			Inserted:   res.Inserted,
			Depleted:   res.Depleted,
			Skipped:    res.Skipped,
			Duration:   res.Duration,
			FinishedAt: time.Now(),
		})
	}
	return res, nil
}

func (t *Tracker) sync(ctx context.Context, galaxy string) (*SyncResult, error) {
	spawns, err := t.swg.CurrentSpawns(ctx, galaxy)
	if err != nil {
		return nil, fmt.Errorf("fetch spawns of %s: %w", galaxy, err)
	}

	res := &SyncResult{Galaxy: galaxy, Seen: len(spawns)}
	seen := make([]string, 0, len(spawns))
	var fresh []*Candidate

	for _, sp := range spawns {
		// skipped spawns are still in spawn and keep their stored rows
		if name := strings.TrimSpace(sp.Name); name != "" {
			seen = append(seen, name)
		}
		report := Report{Name: sp.Name, Galaxy: galaxy, Class: sp.Class, Stats: sp.Stats, Source: "swgcraft"}
		r, err := report.Resolve(t.registry)
		if err != nil {
			t.logger.Warn("skipping spawn", "galaxy", galaxy, "name", sp.Name, "error", err)
			res.Skipped++
			continue
		}
		c, err := NewCandidate(t.registry, r)
		if err != nil {
			t.logger.Warn("skipping spawn", "galaxy", galaxy, "name", sp.Name, "error", err)
			res.Skipped++
			continue
		}
		if !sp.SpawnedAt.IsZero() {
			r.ReportedAt = sp.SpawnedAt
		}

		inserted, err := t.store.UpsertResource(ctx, r)
		if err != nil {
			return nil, err
		}
		t.metrics.ObserveIngest(r.Source)
		if !inserted {
			continue
		}
		res.Inserted++
		t.publishCreated(r)
		fresh = append(fresh, c)
	}

	if len(spawns) == 0 {
		t.logger.Warn("spawn source returned no spawns, keeping stored resources", "galaxy", galaxy)
	} else {
		depleted, err := t.store.DepleteMissing(ctx, galaxy, seen)
		if err != nil {
			return nil, err
		}
		res.Depleted = int64(len(depleted))
		t.metrics.ObserveDepleted(res.Depleted)
		for _, id := range depleted {
			t.publishDepleted(id.String(), galaxy)
		}
	}

	if len(fresh) == 0 {
		return res, nil
	}
	schematics, err := t.store.ListSchematics(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list schematics: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, t.cfg.Tracker.Workers))
	for _, c := range fresh {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t.publishRated(c, t.Match(c, schematics))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Ingest stores one report and rates it against every schematic. The
// stored resource and its best matches are returned.
func (t *Tracker) Ingest(ctx context.Context, report Report) (*store.Resource, []hermes.ExperimentMatch, error) {
	r, err := report.Resolve(t.registry)
	if err != nil {
		return nil, nil, err
	}
	inserted, err := t.store.UpsertResource(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	t.metrics.ObserveIngest(r.Source)
	if inserted {
		t.publishCreated(r)
	}

	c, err := NewCandidate(t.registry, r)
	if err != nil {
		return nil, nil, err
	}
	schematics, err := t.store.ListSchematics(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("list schematics: %w", err)
	}
	matches := t.Match(c, schematics)
	t.publishRated(c, matches)
	return r, matches, nil
}

// Match rates c against every experiment whose class equals or contains
// the class of c and returns the eligible ones best first, at most
// tracker.top_matches of them.
func (t *Tracker) Match(c *Candidate, schematics []*store.Schematic) []hermes.ExperimentMatch {
	opts := t.rater.Defaults()
	var matches []hermes.ExperimentMatch
	for _, sc := range schematics {
		for _, exp := range sc.Experiments {
			caps := t.registry.ByToken(exp.ClassToken)
			if caps == nil || !c.class.IsSubclassOf(caps) {
				continue
			}
			w, err := scoring.NewWeightsRelaxed(exp.Weights)
			if err != nil {
				t.logger.Warn("schematic experiment has malformed weights", "schematic_id", sc.ID, "experiment", exp.Name, "error", err)
				continue
			}
			rating, err := t.rater.Explain(w, c, caps, opts)
			if err != nil {
				t.logger.Warn("rating failed", "schematic_id", sc.ID, "experiment", exp.Name, "error", err)
				continue
			}
			t.metrics.ObserveRating(rating.Score, rating.Eligible)
			if !rating.Eligible {
				continue
			}
			matches = append(matches, hermes.ExperimentMatch{
				SchematicID:   sc.ID.String(),
				SchematicName: sc.Name,
				Experiment:    exp.Name,
				Score:         rating.Score,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if n := t.cfg.Tracker.TopMatches; n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

// MarkDepleted flags one resource as gone from spawn.
func (t *Tracker) MarkDepleted(ctx context.Context, r *store.Resource) error {
	if err := t.store.MarkDepleted(ctx, r.ID); err != nil {
		return err
	}
	t.metrics.ObserveDepleted(1)
	t.publishDepleted(r.ID.String(), r.Galaxy)
	return nil
}

func (t *Tracker) publishDepleted(id, galaxy string) {
	if t.hermes == nil {
		return
	}
	_ = t.hermes.Publish(hermes.SubjectResourceDepleted(id), hermes.ResourceDepletedEvent{
		ResourceID: id,
		Galaxy:     galaxy,
	})
}

func (t *Tracker) publishCreated(r *store.Resource) {
	if t.hermes == nil {
		return
	}
	_ = t.hermes.Publish(hermes.SubjectResourceCreated(r.ID.String()), hermes.ResourceCreatedEvent{
		ResourceID: r.ID.String(),
		Name:       r.Name,
		Galaxy:     r.Galaxy,
		Class:      r.ClassToken,
	})
}

func (t *Tracker) publishRated(c *Candidate, matches []hermes.ExperimentMatch) {
	if t.hermes == nil || len(matches) == 0 {
		return
	}
	r := c.Resource
	_ = t.hermes.Publish(hermes.SubjectResourceRated(r.ID.String()), hermes.ResourceRatedEvent{
		ResourceID: r.ID.String(),
		Name:       r.Name,
		Galaxy:     r.Galaxy,
		Class:      r.ClassToken,
		Matches:    matches,
	})
}

// SetupSubscriptions registers the NATS subscription for stat reports.
func (t *Tracker) SetupSubscriptions() {
	if t.hermes == nil {
		return
	}

	err := t.hermes.Subscribe(hermes.SubjectResourceReported, func(_ string, data []byte) {
		var evt hermes.ResourceReportedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			t.logger.Warn("invalid resource report event", "error", err)
			return
		}
		source := evt.Source
		if source == "" {
			source = "hermes"
		}
		r, matches, err := t.Ingest(context.Background(), Report{
			Name:   evt.Name,
			Galaxy: evt.Galaxy,
			Class:  evt.Class,
			Stats:  evt.Stats,
			Source: source,
		})
		if err != nil {
			t.logger.Warn("failed to ingest resource report", "name", evt.Name, "galaxy", evt.Galaxy, "reporter", evt.Reporter, "error", err)
			return
		}
		t.logger.Info("resource report ingested", "resource_id", r.ID, "name", r.Name, "matches", len(matches))
	})
	if err != nil {
		t.logger.Error("failed to subscribe", "subject", hermes.SubjectResourceReported, "error", err)
	}
}
