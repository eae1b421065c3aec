package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
	"github.com/MikeSquared-Agency/Assay/internal/tracker"
)

// Ingester stores a stat report and rates it.
type Ingester interface {
	Ingest(ctx context.Context, report tracker.Report) (*store.Resource, []hermes.ExperimentMatch, error)
	MarkDepleted(ctx context.Context, r *store.Resource) error
}

type ResourcesHandler struct {
	store    store.Store
	ingester Ingester
	registry *resource.Registry
	logger   *slog.Logger
}

func NewResourcesHandler(s store.Store, in Ingester, reg *resource.Registry, logger *slog.Logger) *ResourcesHandler {
	return &ResourcesHandler{store: s, ingester: in, registry: reg, logger: logger}
}

type ReportRequest struct {
	Name   string     `json:"name"`
	Galaxy string     `json:"galaxy"`
	Class  string     `json:"class"`
	Stats  statValues `json:"stats"`
}

type ReportResponse struct {
	Resource *store.Resource          `json:"resource"`
	Matches  []hermes.ExperimentMatch `json:"matches"`
}

func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Galaxy == "" || req.Class == "" {
		writeMessage(w, http.StatusBadRequest, "name, galaxy and class required")
		return
	}
	if req.Stats != nil {
		if err := scoring.ValidateLength(req.Stats); err != nil {
			writeError(w, err)
			return
		}
	}

	res, matches, err := h.ingester.Ingest(r.Context(), tracker.Report{
		Name:   req.Name,
		Galaxy: req.Galaxy,
		Class:  req.Class,
		Stats:  req.Stats.asMap(),
		Source: r.Header.Get(ClientIDHeader),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if matches == nil {
		matches = []hermes.ExperimentMatch{}
	}
	writeJSON(w, http.StatusCreated, ReportResponse{Resource: res, Matches: matches})
}

// List filters by galaxy and class. A class filter includes every class
// below it, so class=steel lists carbonite and ditanium too.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ResourceFilter{Galaxy: q.Get("galaxy")}

	var err error
	if filter.IncludeDepleted, err = queryBool(r, "include_depleted", false); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, name := range strings.Split(q.Get("class"), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := h.registry.Lookup(name)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Classes = append(filter.Classes, classTokens(h.registry, c)...)
	}

	resources, err := h.store.ListResources(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if resources == nil {
		resources = []*store.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ResourcesHandler) Deplete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.load(w, r)
	if !ok {
		return
	}
	if res.Depleted {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if err := h.ingester.MarkDepleted(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}
	res.Depleted = true
	writeJSON(w, http.StatusOK, res)
}

func (h *ResourcesHandler) load(w http.ResponseWriter, r *http.Request) (*store.Resource, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid resource id")
		return nil, false
	}
	res, err := h.store.GetResource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if res == nil {
		writeMessage(w, http.StatusNotFound, "resource not found")
		return nil, false
	}
	return res, true
}

// classTokens returns c and every class below it.
func classTokens(reg *resource.Registry, c *resource.Class) []string {
	tokens := []string{c.Token}
	for _, d := range reg.Descendants(c.ID) {
		tokens = append(tokens, d.Token)
	}
	return tokens
}
