// Package contracts defines the CloudEvent envelope exchanged between OCN
// services and the media-type constants that accompany it.
//
// Events travel in CloudEvents 1.0 structured mode. The subject attribute
// carries the trace ID, so an Event built with NewEvent inherits the trace of
// the context it was created in:
//
//	evt, err := contracts.NewEvent(ctx, "ocn.orca.decision.v1", "https://orca.ocn.ai/v1/decision", decision)
//	body, err := json.Marshal(evt)
//
// Payload conformance is checked by the schema package, not here.
package contracts
