package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ContractValidator validates mandate payloads and CloudEvents against the
// OCN schemas. It holds no per-call state and is safe for concurrent use.
type ContractValidator struct {
	validators *ValidatorCache
	registry   *EventTypeRegistry
	logger     *slog.Logger
	metrics    *Metrics
}

// ContractOption configures a ContractValidator
type ContractOption func(*contractConfig)

type contractConfig struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ContractOption {
	return func(c *contractConfig) {
		c.logger = logger
	}
}

// WithMetrics records validation outcomes on m
func WithMetrics(m *Metrics) ContractOption {
	return func(c *contractConfig) {
		c.metrics = m
	}
}

// NewContractValidator creates a contract validator. A nil validators cache
// reads from a default Store; a nil registry uses NewEventTypeRegistry.
func NewContractValidator(validators *ValidatorCache, registry *EventTypeRegistry, opts ...ContractOption) *ContractValidator {
	cfg := &contractConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if validators == nil {
		validators = NewValidatorCache(NewStore(WithStoreLogger(cfg.logger)), WithCacheLogger(cfg.logger))
	}
	if registry == nil {
		registry = NewEventTypeRegistry()
	}

	return &ContractValidator{
		validators: validators,
		registry:   registry,
		logger:     cfg.logger.With("component", "contract-validator"),
		metrics:    cfg.metrics,
	}
}

// Registry returns the CloudEvent type registry in use
func (cv *ContractValidator) Registry() *EventTypeRegistry {
	return cv.registry
}

// ValidatePayload validates payload against the mandate schema schemaName.
// It returns nil on success and stops at the first violation otherwise.
func (cv *ContractValidator) ValidatePayload(payload interface{}, schemaName string) error {
	err := cv.validatePayload(payload, schemaName)
	cv.metrics.recordValidation("payload", err)
	if err != nil {
		cv.logger.Debug("payload rejected", "schema", schemaName, "error", err)
	}
	return err
}

func (cv *ContractValidator) validatePayload(payload interface{}, schemaName string) error {
	instance, err := Decode(payload)
	if err != nil {
		return err
	}

	v, err := cv.validators.Get(Mandate(schemaName))
	if err != nil {
		return err
	}

	return v.Validate(instance)
}

// ValidateCloudEvent validates a CloudEvent envelope against the schema
// registered for wireType. Unregistered types fail with ErrUnknownEventType
// before any schema is read.
func (cv *ContractValidator) ValidateCloudEvent(payload interface{}, wireType string) error {
	err := cv.validateCloudEvent(payload, wireType)
	cv.metrics.recordValidation("cloudevent", err)
	if err != nil {
		cv.logger.Debug("cloudevent rejected", "type", wireType, "error", err)
	}
	return err
}

func (cv *ContractValidator) validateCloudEvent(payload interface{}, wireType string) error {
	instance, err := Decode(payload)
	if err != nil {
		return err
	}

	id, err := cv.registry.Resolve(wireType)
	if err != nil {
		return err
	}

	v, err := cv.validators.Get(id)
	if err != nil {
		return err
	}

	if violation, failed := v.First(instance); failed {
		return &ValidationError{Subject: wireType, Violation: violation}
	}
	return nil
}

// Violations returns every violation of payload against the named schema.
// It never fails: unparsable payloads and unusable schemas are reported as a
// single violation. An empty result means the payload is valid.
func (cv *ContractValidator) Violations(payload interface{}, schemaName string, category Category) []Violation {
	instance, err := Decode(payload)
	if err != nil {
		return []Violation{{Message: err.Error()}}
	}

	v, err := cv.validators.Get(Identifier{Category: category, Name: schemaName})
	if err != nil {
		return []Violation{{Message: err.Error()}}
	}

	violations := v.Violations(instance)
	if violations == nil {
		return []Violation{}
	}
	return violations
}

// ListAvailable returns the schema names present on storage for category
func (cv *ContractValidator) ListAvailable(category Category) ([]string, error) {
	return cv.validators.Store().ListAvailable(category)
}

// Decode turns payload into the generic JSON value validators consume.
// Text forms (string, []byte, json.RawMessage) are parsed; any other value is
// round-tripped through encoding/json so structs and maps validate alike.
// Numbers are kept as json.Number to preserve precision.
func Decode(payload interface{}) (interface{}, error) {
	var raw []byte
	switch p := payload.(type) {
	case string:
		raw = []byte(p)
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		raw = b
	}

	instance, err := decodeJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return instance, nil
}

// decodeJSON reads exactly one JSON value from r with numbers as json.Number
func decodeJSON(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}
