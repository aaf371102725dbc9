package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rzbill/tally/internal/metrics"
	"github.com/rzbill/tally/internal/runtime"
	"github.com/rzbill/tally/internal/stable"
	"github.com/rzbill/tally/internal/ui"
	logpkg "github.com/rzbill/tally/pkg/log"
)

// MaxLogsBody caps the /logs response size in bytes.
const MaxLogsBody = 2_000_000

// OpsController serves the operator endpoints: /metrics, /dashboard and /logs.
type OpsController struct {
	rt       *runtime.Runtime
	ring     *logpkg.RingOutput
	renderer *ui.Renderer
	version  string
	now      func() time.Time
}

// NewOpsController creates a new ops controller. ring may be nil, in which
// case /logs serves an empty list.
func NewOpsController(rt *runtime.Runtime, ring *logpkg.RingOutput, renderer *ui.Renderer, version string) *OpsController {
	return &OpsController{rt: rt, ring: ring, renderer: renderer, version: version, now: time.Now}
}

// RegisterRoutes registers ops routes with the given mux.
func (c *OpsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", c.handleMetrics)
	mux.HandleFunc("/dashboard", c.handleDashboard)
	mux.HandleFunc("/logs", c.handleLogs)
}

func (c *OpsController) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := metrics.Encode(&buf, c.now().UnixMilli(), c.rt.MetricsSnapshot(c.version)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode metrics: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (c *OpsController) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rows := c.rt.Counts()
	d := ui.Dashboard{
		Greeting:          c.rt.Greeting(),
		StartMode:         c.rt.StartMode(),
		TotalEvents:       c.rt.TotalEvents(),
		DistinctNames:     uint64(len(rows)),
		StableMemoryBytes: c.rt.StableMemoryPages() * stable.PageSize,
		Names:             make([]ui.NameRow, 0, len(rows)),
	}
	for _, row := range rows {
		d.Names = append(d.Names, ui.NameRow{Name: row.Name, Count: row.Count})
	}
	var buf bytes.Buffer
	if err := c.renderer.Render(&buf, d, r.Header.Get("Accept-Language")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleLogs serves GET /logs?priority=info|debug&sort=asc|desc&time=<ms>.
//
// Entries older than time are skipped. Without time the default order is
// ascending, with it descending. Entries that do not fit MaxLogsBody are
// dropped from the tail of the chosen order.
func (c *OpsController) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	var since int64
	if s := q.Get("time"); s != "" {
		v, err := strconv.ParseUint(s, 10, 63)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to parse the 'time' parameter")
			return
		}
		since = int64(v)
	}

	var entries []logpkg.RingEntry
	if c.ring != nil {
		entries = c.ring.Entries()
	}
	priority := strings.ToLower(q.Get("priority"))
	out := make([]logEntryJSON, 0, len(entries))
	for _, e := range entries {
		isDebug := e.Entry.Level == logpkg.DebugLevel
		if (priority == "debug" && !isDebug) || (priority == "info" && isDebug) {
			continue
		}
		ts := e.Entry.Timestamp.UnixMilli()
		if ts < since {
			continue
		}
		out = append(out, toLogEntryJSON(e))
	}

	desc := since != 0
	switch strings.ToLower(q.Get("sort")) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].Timestamp < out[j].Timestamp
	})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(serializeLogs(out, MaxLogsBody))
}

func toLogEntryJSON(e logpkg.RingEntry) logEntryJSON {
	out := logEntryJSON{
		Timestamp: e.Entry.Timestamp.UnixMilli(),
		Priority:  e.Entry.Level.String(),
		Message:   e.Entry.Message,
		Counter:   e.Counter,
	}
	if i := strings.LastIndexByte(e.Entry.Caller, ':'); i > 0 {
		out.File = e.Entry.Caller[:i]
		out.Line, _ = strconv.Atoi(e.Entry.Caller[i+1:])
	}
	if len(e.Entry.Fields) > 0 {
		out.Fields = make(map[string]any, len(e.Entry.Fields))
		for k, v := range e.Entry.Fields {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			out.Fields[k] = v
		}
	}
	return out
}

// serializeLogs renders {"entries":[...]} keeping as many leading entries as
// fit in maxBytes.
func serializeLogs(entries []logEntryJSON, maxBytes int) []byte {
	const head, tail = `{"entries":[`, `]}`
	buf := bytes.NewBufferString(head)
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		sep := 0
		if buf.Len() > len(head) {
			sep = 1
		}
		if buf.Len()+sep+len(b)+len(tail) > maxBytes {
			break
		}
		if sep == 1 {
			buf.WriteByte(',')
		}
		buf.Write(b)
	}
	buf.WriteString(tail)
	return buf.Bytes()
}
