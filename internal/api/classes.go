package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Assay/internal/resource"
)

type ClassesHandler struct {
	registry *resource.Registry
}

func NewClassesHandler(reg *resource.Registry) *ClassesHandler {
	return &ClassesHandler{registry: reg}
}

type ClassDetail struct {
	resource.ClassView
	Ancestors []string `json:"ancestors"`
}

func (h *ClassesHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	d := ClassDetail{ClassView: c.View(), Ancestors: []string{}}
	for _, a := range c.Ancestors() {
		d.Ancestors = append(d.Ancestors, a.Token)
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ClassesHandler) Children(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	out := []resource.ClassView{}
	for _, child := range h.registry.Children(c.ID) {
		out = append(out, child.View())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ClassesHandler) lookup(w http.ResponseWriter, r *http.Request) (*resource.Class, bool) {
	c, err := h.registry.Lookup(chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, resource.ErrUnknownClass) {
			writeMessage(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		writeError(w, err)
		return nil, false
	}
	return c, true
}
