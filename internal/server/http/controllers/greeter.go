package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rzbill/tally/internal/runtime"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// GreeterController serves the greet action and the count queries.
type GreeterController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// NewGreeterController creates a new greeter controller.
func NewGreeterController(rt *runtime.Runtime, logger logpkg.Logger) *GreeterController {
	return &GreeterController{rt: rt, logger: logger}
}

// RegisterRoutes registers greeter routes with the given mux.
//
// - POST /v1/greet
// - GET /v1/greeted?name=
// - GET /v1/greeted/total
// - GET /v1/events/total
func (c *GreeterController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/greet", c.handleGreet)
	mux.HandleFunc("/v1/greeted", c.handleGreetedCount)
	mux.HandleFunc("/v1/greeted/total", c.handleGreetedTotal)
	mux.HandleFunc("/v1/events/total", c.handleEventsTotal)
}

func (c *GreeterController) handleGreet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req greetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	msg, err := c.rt.Greet(r.Context(), req.Name)
	if err != nil {
		c.logger.WithContext(r.Context()).Error("greet failed", logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to record greeting")
		return
	}
	writeJSON(w, greetResp{Message: msg})
}

func (c *GreeterController) handleGreetedCount(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	if !q.Has("name") {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name := q.Get("name")
	writeJSON(w, nameCountResp{Name: name, Count: c.rt.CountFor(name)})
}

func (c *GreeterController) handleGreetedTotal(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, totalResp{Total: c.rt.TotalDistinctKeys()})
}

func (c *GreeterController) handleEventsTotal(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, totalResp{Total: c.rt.TotalEvents()})
}
