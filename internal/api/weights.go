package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

type WeightsHandler struct{}

func NewWeightsHandler() *WeightsHandler { return &WeightsHandler{} }

type WeightsRequest struct {
	Weights statValues `json:"weights"`
}

type WiderRequest struct {
	A statValues `json:"a"`
	B statValues `json:"b"`
}

type WeightsResponse struct {
	Weights []int  `json:"weights"`
	Pairs   string `json:"pairs"`
	Sum     int    `json:"sum"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

func weightsResponse(ws *scoring.Weights) WeightsResponse {
	resp := WeightsResponse{
		Weights: ws.Slice(),
		Pairs:   ws.String(),
		Sum:     ws.Sum(),
		Valid:   ws.IsValid(),
	}
	if err := ws.Validate(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func decodeWeights(w http.ResponseWriter, r *http.Request) (*scoring.Weights, bool) {
	var req WeightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	ws, err := scoring.NewWeightsRelaxed(req.Weights)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ws, true
}

// Adjust rescales the weights so they sum to about 100.
func (h *WeightsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	ws, ok := decodeWeights(w, r)
	if !ok {
		return
	}
	ws.Adjust()
	writeJSON(w, http.StatusOK, weightsResponse(ws))
}

func (h *WeightsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ws, ok := decodeWeights(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, weightsResponse(ws))
}

// Wider returns whichever profile weights a superset of the other's
// stats, or 404 when neither does.
func (h *WeightsHandler) Wider(w http.ResponseWriter, r *http.Request) {
	var req WiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	a, err := scoring.NewWeightsRelaxed(req.A)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := scoring.NewWeightsRelaxed(req.B)
	if err != nil {
		writeError(w, err)
		return
	}
	wide := scoring.Wider(a, b)
	if wide == nil {
		writeMessage(w, http.StatusNotFound, "neither profile covers the other")
		return
	}
	writeJSON(w, http.StatusOK, weightsResponse(wide))
}
