package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

type RatingHandler struct {
	registry *resource.Registry
	rater    *scoring.Rater
}

func NewRatingHandler(reg *resource.Registry, rater *scoring.Rater) *RatingHandler {
	return &RatingHandler{registry: reg, rater: rater}
}

// RateRequest rates inline stats of a class against inline weights. Caps
// defaults to the resource class; the policy flags default to the
// service configuration.
type RateRequest struct {
	Weights    statValues `json:"weights"`
	Stats      statValues `json:"stats"`
	Class      string     `json:"class"`
	Caps       string     `json:"caps,omitempty"`
	ZeroIsMax  *bool      `json:"zero_is_max,omitempty"`
	ReducedCap *bool      `json:"reduced_cap,omitempty"`
}

type RateResponse struct {
	Class  string         `json:"class"`
	Caps   string         `json:"caps"`
	Stats  string         `json:"stats"`
	Rating scoring.Rating `json:"rating"`
}

type inlineResource struct {
	stats *scoring.ResourceStats
	class *resource.Class
}

func (r inlineResource) Stats() *scoring.ResourceStats { return r.stats }
func (r inlineResource) Class() scoring.ClassCaps      { return r.class }

func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Class == "" {
		writeMessage(w, http.StatusBadRequest, "class required")
		return
	}

	class, err := h.registry.Lookup(req.Class)
	if err != nil {
		writeError(w, err)
		return
	}
	caps := class
	if req.Caps != "" {
		if caps, err = h.registry.Lookup(req.Caps); err != nil {
			writeError(w, err)
			return
		}
	}

	weights, err := scoring.NewWeightsRelaxed(req.Weights)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := scoring.NewResourceStats(req.Stats)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := h.rater.Defaults()
	if req.ZeroIsMax != nil {
		opts.ZeroIsMax = *req.ZeroIsMax
	}
	if req.ReducedCap != nil {
		opts.ReducedCap = *req.ReducedCap
	}

	rating, err := h.rater.Explain(weights, inlineResource{stats: stats, class: class}, caps, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RateResponse{
		Class:  class.Token,
		Caps:   caps.Token,
		Stats:  stats.String(),
		Rating: rating,
	})
}
