package trace

import (
	"sort"

	"github.com/google/uuid"
)

const (
	// Header carries the trace ID on HTTP requests and broker messages
	Header = "x-ocn-trace-id"

	// FieldTraceID is the key used in maps, log records and CloudEvent data
	FieldTraceID = "trace_id"

	serviceName    = "ocn-common"
	serviceVersion = "1.0.0"
)

// NewID returns a fresh random trace ID in canonical UUID v4 form
func NewID() string {
	return uuid.NewString()
}

// IsValid reports whether id parses as an RFC 4122 UUID of version 4
func IsValid(id string) bool {
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

// Ensure returns the trace ID stored in m under "trace_id" when it is a valid
// v4 UUID. Otherwise it stores a new one in m and returns it. A nil map gets a
// new ID that is not stored anywhere.
func Ensure(m map[string]interface{}) string {
	if m == nil {
		return NewID()
	}

	if existing, ok := m[FieldTraceID].(string); ok && IsValid(existing) {
		return existing
	}

	id := NewID()
	m[FieldTraceID] = id
	return id
}

// InjectCloudEvent returns a shallow copy of envelope whose subject is
// traceID. The input map is left untouched.
func InjectCloudEvent(envelope map[string]interface{}, traceID string) map[string]interface{} {
	out := make(map[string]interface{}, len(envelope)+1)
	for k, v := range envelope {
		out[k] = v
	}
	out["subject"] = traceID
	return out
}

// Fields is the correlation context attached to log records
type Fields map[string]string

// NewFields returns the correlation fields for traceID, generating an ID
// when traceID is empty.
func NewFields(traceID string) Fields {
	if traceID == "" {
		traceID = NewID()
	}
	return Fields{
		FieldTraceID: traceID,
		"service":    serviceName,
		"version":    serviceVersion,
	}
}

// TraceID returns the trace_id entry
func (f Fields) TraceID() string {
	return f[FieldTraceID]
}

// Args flattens the fields into slog key/value arguments in key order
func (f Fields) Args() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(f)*2)
	for _, k := range keys {
		args = append(args, k, f[k])
	}
	return args
}
