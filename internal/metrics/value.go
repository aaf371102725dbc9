// Package metrics exposes process and storage gauges in the Prometheus text
// exposition format.
package metrics

// MetricValue is implemented by anything that can be reported as a sample.
type MetricValue interface {
	MetricValue() float64
}

// Uint32 is a 32-bit counter or gauge reading.
type Uint32 uint32

// MetricValue implements MetricValue.
func (v Uint32) MetricValue() float64 { return float64(v) }

// Uint64 is a 64-bit counter or gauge reading. Values above 2^53 lose
// precision in the float conversion.
type Uint64 uint64

// MetricValue implements MetricValue.
func (v Uint64) MetricValue() float64 { return float64(v) }

// Float is a reading that is already a float.
type Float float64

// MetricValue implements MetricValue.
func (v Float) MetricValue() float64 { return float64(v) }
