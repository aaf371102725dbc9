package metrics

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// Encoder writes metric families in the Prometheus text format. Every sample
// carries the same millisecond timestamp.
type Encoder struct {
	w         io.Writer
	timestamp int64
	err       error
}

// NewEncoder returns an Encoder stamping samples with nowMillis.
func NewEncoder(w io.Writer, nowMillis int64) *Encoder {
	return &Encoder{w: w, timestamp: nowMillis}
}

// Err returns the first write or validation error.
func (e *Encoder) Err() error { return e.err }

// Gauge writes a single unlabeled gauge.
func (e *Encoder) Gauge(name string, v MetricValue, help string) {
	e.header(name, "gauge", help)
	e.sample(name, nil, v.MetricValue())
}

// Counter writes a single unlabeled counter.
func (e *Encoder) Counter(name string, v MetricValue, help string) {
	e.header(name, "counter", help)
	e.sample(name, nil, v.MetricValue())
}

// GaugeVec writes the family header and returns a writer for labeled samples.
func (e *Encoder) GaugeVec(name, help string) *VecWriter {
	e.header(name, "gauge", help)
	return &VecWriter{enc: e, name: name}
}

// CounterVec writes the family header and returns a writer for labeled samples.
func (e *Encoder) CounterVec(name, help string) *VecWriter {
	e.header(name, "counter", help)
	return &VecWriter{enc: e, name: name}
}

// Label is one name/value pair on a sample.
type Label struct {
	Name, Value string
}

// VecWriter appends labeled samples to one family.
type VecWriter struct {
	enc  *Encoder
	name string
}

// Value writes one sample and returns the writer for chaining.
func (v *VecWriter) Value(labels []Label, value MetricValue) *VecWriter {
	v.enc.sample(v.name, labels, value.MetricValue())
	return v
}

func (e *Encoder) header(name, kind, help string) {
	if e.err != nil {
		return
	}
	if !nameRE.MatchString(name) {
		e.err = fmt.Errorf("metrics: invalid metric name %q", name)
		return
	}
	_, e.err = fmt.Fprintf(e.w, "# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func (e *Encoder) sample(name string, labels []Label, v float64) {
	if e.err != nil {
		return
	}
	var b strings.Builder
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(l.Name)
			b.WriteString(`="`)
			b.WriteString(escapeLabel(l.Value))
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(formatFloat(v))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(e.timestamp, 10))
	b.WriteByte('\n')
	_, e.err = io.WriteString(e.w, b.String())
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
)

func escapeHelp(s string) string  { return helpEscaper.Replace(s) }
func escapeLabel(s string) string { return labelEscaper.Replace(s) }
