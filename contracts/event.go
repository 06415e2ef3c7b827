package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ocn-network/ocn-common-go/trace"
)

const (
	// ContentType is the media type for AP2 payloads exchanged between services
	ContentType = "application/vnd.ocn.ap2+json; version=1"

	// SchemaVersion is the version of the event schemas under common/events
	SchemaVersion = "v1"

	// SpecVersion is the CloudEvents specification version in use
	SpecVersion = "1.0"

	// DataContentType is the only datacontenttype OCN events carry
	DataContentType = "application/json"
)

// Event is a CloudEvents 1.0 envelope in structured mode
type Event struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	DataSchema      string          `json:"dataschema,omitempty"`
	Data            json.RawMessage `json:"data"`

	// raw is the body ParseEvent decoded, kept for validation
	raw json.RawMessage
}

// NewEvent builds an event of eventType from source carrying data. The
// subject is the trace ID on ctx, or a new one when ctx has none.
func NewEvent(ctx context.Context, eventType, source string, data interface{}) (*Event, error) {
	if eventType == "" {
		return nil, ErrMissingEventType
	}
	if source == "" {
		return nil, ErrMissingSource
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", eventType, err)
	}

	_, traceID := trace.EnsureContext(ctx)

	return &Event{
		SpecVersion:     SpecVersion,
		ID:              uuid.New().String(),
		Source:          source,
		Type:            eventType,
		Subject:         traceID,
		Time:            time.Now().UTC(),
		DataContentType: DataContentType,
		Data:            raw,
	}, nil
}

// ParseEvent decodes a structured-mode CloudEvent
func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if evt.Type == "" {
		return nil, ErrMissingEventType
	}
	evt.raw = append(json.RawMessage(nil), body...)
	return &evt, nil
}

// Raw returns the body the event was parsed from, or nil for events built
// in process. Attributes absent from the body stay absent here.
func (e *Event) Raw() json.RawMessage {
	return e.raw
}

// TraceID returns the trace ID carried in the subject
func (e *Event) TraceID() string {
	return e.Subject
}

// WithTraceID returns a copy of e whose subject is traceID
func (e *Event) WithTraceID(traceID string) *Event {
	out := *e
	out.Subject = traceID
	out.raw = withSubject(e.raw, traceID)
	return &out
}

// withSubject rewrites the subject attribute of a raw event, leaving the
// other attributes as received. It returns nil when raw is not an object.
func withSubject(raw json.RawMessage, subject string) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &attrs); err != nil || attrs == nil {
		return nil
	}
	encoded, err := json.Marshal(subject)
	if err != nil {
		return nil
	}
	attrs["subject"] = encoded
	out, err := json.Marshal(attrs)
	if err != nil {
		return nil
	}
	return out
}

// Context returns ctx carrying the event's trace ID
func (e *Event) Context(ctx context.Context) context.Context {
	return trace.WithID(ctx, e.Subject)
}

// DecodeData unmarshals the data attribute into v
func (e *Event) DecodeData(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: event %s has no data", ErrInvalidEvent, e.ID)
	}
	return json.Unmarshal(e.Data, v)
}
