//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	if err := RunMigrations(ctx, dbURL); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE assay_resources, assay_schematics")
		s.Close()
	})

	return s
}

func statsOf(pairs map[int]int) []int {
	out := make([]int, 11)
	for i, v := range pairs {
		out[i] = v
	}
	return out
}

func TestCreateAndGetResource(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	r := &Resource{
		Name:       "Aasudu",
		Galaxy:     "Legends",
		ClassToken: "steel_ditanium",
		Stats:      statsOf(map[int]int{7: 400, 9: 500}),
		Source:     "integration-test",
	}
	if err := s.CreateResource(ctx, r); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}
	if r.ID == uuid.Nil {
		t.Fatal("expected non-nil resource ID after create")
	}

	got, err := s.GetResource(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetResource failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected resource, got nil")
	}
	if got.Name != "Aasudu" || got.ClassToken != "steel_ditanium" {
		t.Errorf("unexpected resource %+v", got)
	}
	if len(got.Stats) != 11 || got.Stats[7] != 400 || got.Stats[9] != 500 {
		t.Errorf("unexpected stats %v", got.Stats)
	}

	missing, err := s.GetResource(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetResource missing failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown resource")
	}
}

func TestUpsertResource(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	r := &Resource{Name: "Oquel", Galaxy: "Legends", ClassToken: "iron", Stats: statsOf(map[int]int{7: 100})}
	inserted, err := s.UpsertResource(ctx, r)
	if err != nil {
		t.Fatalf("UpsertResource failed: %v", err)
	}
	if !inserted {
		t.Error("expected first upsert to insert")
	}
	firstID := r.ID

	again := &Resource{Name: "Oquel", Galaxy: "Legends", ClassToken: "iron", Stats: statsOf(map[int]int{7: 900})}
	inserted, err = s.UpsertResource(ctx, again)
	if err != nil {
		t.Fatalf("UpsertResource failed: %v", err)
	}
	if inserted {
		t.Error("expected second upsert to update")
	}
	if again.ID != firstID {
		t.Errorf("expected same id %s, got %s", firstID, again.ID)
	}

	got, _ := s.GetResource(ctx, firstID)
	if got.Stats[7] != 900 {
		t.Errorf("expected refreshed OQ 900, got %d", got.Stats[7])
	}
}

func TestListResourcesWithFilters(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	resources := []*Resource{
		{Name: "A", Galaxy: "Legends", ClassToken: "iron", Stats: statsOf(nil)},
		{Name: "B", Galaxy: "Legends", ClassToken: "steel", Stats: statsOf(nil)},
		{Name: "C", Galaxy: "Basilisk", ClassToken: "iron", Stats: statsOf(nil)},
	}
	for _, r := range resources {
		if err := s.CreateResource(ctx, r); err != nil {
			t.Fatalf("CreateResource failed: %v", err)
		}
	}
	if err := s.MarkDepleted(ctx, resources[1].ID); err != nil {
		t.Fatalf("MarkDepleted failed: %v", err)
	}

	result, err := s.ListResources(ctx, ResourceFilter{Galaxy: "Legends"})
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 active Legends resource, got %d", len(result))
	}

	result, err = s.ListResources(ctx, ResourceFilter{Galaxy: "Legends", IncludeDepleted: true})
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 Legends resources, got %d", len(result))
	}

	result, err = s.ListResources(ctx, ResourceFilter{Classes: []string{"iron"}})
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 iron resources, got %d", len(result))
	}
}

func TestDepleteMissing(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if err := s.CreateResource(ctx, &Resource{Name: name, Galaxy: "Legends", ClassToken: "iron", Stats: statsOf(nil), ReportedAt: time.Now()}); err != nil {
			t.Fatalf("CreateResource failed: %v", err)
		}
	}

	ids, err := s.DepleteMissing(ctx, "Legends", []string{"A"})
	if err != nil {
		t.Fatalf("DepleteMissing failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 depleted, got %d", len(ids))
	}
	for _, id := range ids {
		r, err := s.GetResource(ctx, id)
		if err != nil {
			t.Fatalf("GetResource failed: %v", err)
		}
		if r == nil || r.Name == "A" || !r.Depleted {
			t.Errorf("unexpected depleted resource %+v", r)
		}
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalResources != 3 || stats.ActiveResources != 1 || stats.Depleted != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestSchematicRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	sc := &Schematic{
		Name:     "Heavy Armor",
		Category: "armor",
		Experiments: []Experiment{
			{Name: "Kinetic", ClassToken: "steel", Weights: statsOf(map[int]int{7: 50, 9: 50})},
		},
	}
	if err := s.CreateSchematic(ctx, sc); err != nil {
		t.Fatalf("CreateSchematic failed: %v", err)
	}

	got, err := s.GetSchematic(ctx, sc.ID)
	if err != nil {
		t.Fatalf("GetSchematic failed: %v", err)
	}
	if got == nil || len(got.Experiments) != 1 || got.Experiments[0].Weights[9] != 50 {
		t.Fatalf("unexpected schematic %+v", got)
	}

	list, err := s.ListSchematics(ctx, "armor")
	if err != nil {
		t.Fatalf("ListSchematics failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 armor schematic, got %d", len(list))
	}

	if err := s.DeleteSchematic(ctx, sc.ID); err != nil {
		t.Fatalf("DeleteSchematic failed: %v", err)
	}
	got, _ = s.GetSchematic(ctx, sc.ID)
	if got != nil {
		t.Error("expected schematic deleted")
	}
}
