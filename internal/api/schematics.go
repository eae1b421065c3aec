package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
	"github.com/MikeSquared-Agency/Assay/internal/tracker"
)

type SchematicsHandler struct {
	store        store.Store
	registry     *resource.Registry
	rater        *scoring.Rater
	defaultLimit int
	pageSize     int
	logger       *slog.Logger
}

func NewSchematicsHandler(s store.Store, reg *resource.Registry, rater *scoring.Rater, defaultLimit int, logger *slog.Logger) *SchematicsHandler {
	return &SchematicsHandler{
		store:        s,
		registry:     reg,
		rater:        rater,
		defaultLimit: defaultLimit,
		pageSize:     store.DefaultListLimit,
		logger:       logger,
	}
}

type ExperimentRequest struct {
	Name    string     `json:"name"`
	Class   string     `json:"class"`
	Weights statValues `json:"weights"`
}

type CreateSchematicRequest struct {
	Name        string              `json:"name"`
	Category    string              `json:"category,omitempty"`
	Experiments []ExperimentRequest `json:"experiments"`
}

func (h *SchematicsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSchematicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "name required")
		return
	}
	if len(req.Experiments) == 0 {
		writeMessage(w, http.StatusBadRequest, "at least one experiment required")
		return
	}

	sc := &store.Schematic{Name: strings.TrimSpace(req.Name), Category: req.Category}
	for i, e := range req.Experiments {
		class, err := h.registry.Lookup(e.Class)
		if err != nil {
			writeError(w, fmt.Errorf("experiment %d: %w", i, err))
			return
		}
		weights, err := scoring.NewWeights(e.Weights)
		if err != nil {
			writeError(w, fmt.Errorf("experiment %d: %w", i, err))
			return
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = "Experiment " + strconv.Itoa(i+1)
		}
		sc.Experiments = append(sc.Experiments, store.Experiment{
			Name:       name,
			ClassToken: class.Token,
			Weights:    weights.Slice(),
		})
	}

	if err := h.store.CreateSchematic(r.Context(), sc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *SchematicsHandler) List(w http.ResponseWriter, r *http.Request) {
	schematics, err := h.store.ListSchematics(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	if schematics == nil {
		schematics = []*store.Schematic{}
	}
	writeJSON(w, http.StatusOK, schematics)
}

func (h *SchematicsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *SchematicsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSchematic(r.Context(), sc.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type BestEntry struct {
	Resource *store.Resource `json:"resource"`
	Rating   scoring.Rating  `json:"rating"`
}

type BestResponse struct {
	SchematicID uuid.UUID   `json:"schematic_id"`
	Experiment  string      `json:"experiment"`
	Class       string      `json:"class"`
	Galaxy      string      `json:"galaxy,omitempty"`
	ZeroIsMax   bool        `json:"zero_is_max"`
	ReducedCap  bool        `json:"reduced_cap"`
	Frontier    bool        `json:"frontier"`
	Results     []BestEntry `json:"results"`
}

// Best ranks the active resources that can serve experiment n (zero
// based) of a schematic, best first. frontier=true keeps only resources
// no other candidate beats on every weighted stat.
func (h *SchematicsHandler) Best(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.load(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 || n >= len(sc.Experiments) {
		writeMessage(w, http.StatusNotFound, "experiment not found")
		return
	}
	exp := sc.Experiments[n]

	defaults := h.rater.Defaults()
	limit, err := queryInt(r, "limit", h.defaultLimit)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	zeroIsMax, err := queryBool(r, "zero_is_max", defaults.ZeroIsMax)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	reducedCap, err := queryBool(r, "reduced_cap", defaults.ReducedCap)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	frontier, err := queryBool(r, "frontier", false)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	caps, err := h.registry.Lookup(exp.ClassToken)
	if err != nil {
		writeError(w, err)
		return
	}
	weights, err := scoring.NewWeightsRelaxed(exp.Weights)
	if err != nil {
		writeError(w, err)
		return
	}

	galaxy := r.URL.Query().Get("galaxy")
	resources, err := h.listAll(r.Context(), store.ResourceFilter{
		Galaxy:  galaxy,
		Classes: classTokens(h.registry, caps),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	ranked, err := h.rater.Rank(weights, caps, tracker.Candidates(h.registry, resources, h.logger), h.rater.Options(zeroIsMax, reducedCap))
	if err != nil {
		writeError(w, err)
		return
	}
	eligible := ranked[:0]
	for _, rk := range ranked {
		if rk.Rating.Eligible {
			eligible = append(eligible, rk)
		}
	}
	ranked = eligible
	if frontier {
		ranked = scoring.ComputeFrontier(weights, ranked)
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	resp := BestResponse{
		SchematicID: sc.ID,
		Experiment:  exp.Name,
		Class:       caps.Token,
		Galaxy:      galaxy,
		ZeroIsMax:   zeroIsMax,
		ReducedCap:  reducedCap,
		Frontier:    frontier,
		Results:     make([]BestEntry, 0, len(ranked)),
	}
	for _, rk := range ranked {
		c := rk.Resource.(*tracker.Candidate)
		resp.Results = append(resp.Results, BestEntry{Resource: c.Resource, Rating: rk.Rating})
	}
	writeJSON(w, http.StatusOK, resp)
}

// listAll pages through every resource matching f.
func (h *SchematicsHandler) listAll(ctx context.Context, f store.ResourceFilter) ([]*store.Resource, error) {
	f.Limit = h.pageSize
	var out []*store.Resource
	for {
		page, err := h.store.ListResources(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < f.Limit {
			return out, nil
		}
		f.Offset += len(page)
	}
}

func (h *SchematicsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Schematic, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid schematic id")
		return nil, false
	}
	sc, err := h.store.GetSchematic(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if sc == nil {
		writeMessage(w, http.StatusNotFound, "schematic not found")
		return nil, false
	}
	return sc, true
}
