package log

import (
	"fmt"
	"time"
)

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field from an arbitrary value.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Str builds a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 builds an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Uint64 builds a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Dur builds a duration field rendered as a string.
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Any builds a field rendered with %+v.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: fmt.Sprintf("%+v", value)}
}

// Err builds the conventional "error" field. A nil error yields a nil value.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Component tags an entry with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

// Operation tags an entry with the operation being performed.
func Operation(name string) Field { return Field{Key: OperationKey, Value: name} }

// RequestID tags an entry with a request identifier.
func RequestID(id string) Field { return Field{Key: RequestIDKey, Value: id} }
