package schema

import (
	"fmt"
	"sort"
)

// defaultEventTypes maps public CloudEvent types to event schema names.
// Adding a schema file alone does not onboard a type; it must be listed here.
var defaultEventTypes = map[string]string{
	"ocn.orca.decision.v1":     "orca.decision.v1",
	"ocn.orca.explanation.v1":  "orca.explanation.v1",
	"ocn.weave.audit.v1":       "weave.audit.v1",
	"ocn.orion.explanation.v1": "orion.explanation.v1",
	"ocn.okra.bnpl_quote.v1":   "okra.bnpl_quote.v1",
	"ocn.onyx.kyb_verified.v1": "onyx.kyb_verified.v1",
}

// EventTypeRegistry resolves CloudEvent wire types to event schema
// identifiers. It is read-only after construction.
type EventTypeRegistry struct {
	types map[string]Identifier
}

// NewEventTypeRegistry returns the registry of onboarded OCN event types
func NewEventTypeRegistry() *EventTypeRegistry {
	return NewEventTypeRegistryFrom(defaultEventTypes)
}

// NewEventTypeRegistryFrom builds a registry from a wire type to schema name table
func NewEventTypeRegistryFrom(table map[string]string) *EventTypeRegistry {
	types := make(map[string]Identifier, len(table))
	for wireType, name := range table {
		types[wireType] = Event(name)
	}
	return &EventTypeRegistry{types: types}
}

// Resolve returns the event schema identifier for wireType
func (r *EventTypeRegistry) Resolve(wireType string) (Identifier, error) {
	id, ok := r.types[wireType]
	if !ok {
		return Identifier{}, fmt.Errorf("%w: %s", ErrUnknownEventType, wireType)
	}
	return id, nil
}

// IsRegistered reports whether wireType has an entry
func (r *EventTypeRegistry) IsRegistered(wireType string) bool {
	_, ok := r.types[wireType]
	return ok
}

// Types returns the registered wire types in sorted order
func (r *EventTypeRegistry) Types() []string {
	types := make([]string, 0, len(r.types))
	for wireType := range r.types {
		types = append(types, wireType)
	}
	sort.Strings(types)
	return types
}
