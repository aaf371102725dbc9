package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/rzbill/tally/internal/eventlog"
	"github.com/rzbill/tally/internal/runtime"
)

// maxEventsPage bounds a single /v1/events response.
const maxEventsPage = 1000

// EventsController pages through the event log.
type EventsController struct {
	rt *runtime.Runtime
}

// NewEventsController creates a new events controller.
func NewEventsController(rt *runtime.Runtime) *EventsController {
	return &EventsController{rt: rt}
}

// RegisterRoutes registers event routes with the given mux.
func (c *EventsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events", c.handleList)
}

// handleList serves GET /v1/events?start=&limit=&reverse=&filter=.
//
// start is the opaque token from a previous page, filter a CEL expression over
// sequence, size, text and json.
func (c *EventsController) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	opts := eventlog.ReadOptions{
		Limit:   parseLimit(q.Get("limit")),
		Reverse: parseBool(q.Get("reverse")),
	}
	if opts.Limit == 0 || opts.Limit > maxEventsPage {
		opts.Limit = maxEventsPage
	}
	if s := q.Get("start"); s != "" {
		tok, err := decodeToken(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start token")
			return
		}
		opts.Start = tok
	}
	if expr := q.Get("filter"); expr != "" {
		f, err := eventlog.NewFilter(expr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Filter = f
	}

	items, next, err := c.rt.Events(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read events")
		return
	}
	resp := listEventsResp{Items: make([]eventJSON, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, eventJSON{Seq: it.Seq, Payload: string(it.Payload)})
	}
	if !next.IsZero() {
		resp.Next = base64.RawURLEncoding.EncodeToString(next[:])
	}
	writeJSON(w, resp)
}

func decodeToken(s string) (eventlog.Token, error) {
	var tok eventlog.Token
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return tok, err
	}
	if len(raw) != len(tok) {
		return tok, base64.CorruptInputError(len(raw))
	}
	copy(tok[:], raw)
	return tok, nil
}
