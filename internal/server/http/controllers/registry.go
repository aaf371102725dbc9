package controllers

import (
	"net/http"

	"github.com/rzbill/tally/internal/runtime"
	"github.com/rzbill/tally/internal/ui"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	greeter *GreeterController
	events  *EventsController
	ops     *OpsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger, ring *logpkg.RingOutput, renderer *ui.Renderer, version string) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		greeter: NewGreeterController(rt, logger),
		events:  NewEventsController(rt),
		ops:     NewOpsController(rt, ring, renderer, version),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.greeter.RegisterRoutes(mux)
	r.events.RegisterRoutes(mux)
	r.ops.RegisterRoutes(mux)
}
