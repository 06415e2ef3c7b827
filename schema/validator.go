package schema

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/singleflight"
)

// Violation is a single schema-conformance failure
type Violation struct {
	Path       string `json:"path"`
	Message    string `json:"message"`
	SchemaPath string `json:"schema_path"`
}

// Validator checks decoded JSON values against one compiled schema.
// Instances must be the generic form produced by Decode.
type Validator struct {
	ID     Identifier
	schema *jsonschema.Schema
}

// Violations returns every leaf violation in depth-first order, or nil when
// instance conforms.
func (v *Validator) Violations(instance interface{}) []Violation {
	err := v.schema.Validate(instance)
	if err == nil {
		return nil
	}
	return violationsFromError(err)
}

// First returns the first violation, if any
func (v *Validator) First(instance interface{}) (Violation, bool) {
	violations := v.Violations(instance)
	if len(violations) == 0 {
		return Violation{}, false
	}
	return violations[0], true
}

// Validate returns a *ValidationError describing the first violation, or nil
func (v *Validator) Validate(instance interface{}) error {
	if violation, failed := v.First(instance); failed {
		return &ValidationError{Subject: v.ID.Name, Violation: violation}
	}
	return nil
}

func violationsFromError(err error) []Violation {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Violation{{Message: err.Error()}}
	}

	var out []Violation
	collectLeaves(ve, &out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Violation{
			Path:       ve.InstanceLocation,
			Message:    ve.Message,
			SchemaPath: ve.KeywordLocation,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// CacheOption configures a ValidatorCache
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithCacheLogger sets the logger
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *cacheConfig) {
		c.logger = logger
	}
}

// WithCacheMetrics records compilations and cache lookups on m
func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *cacheConfig) {
		c.metrics = m
	}
}

// ValidatorCache compiles store documents into validators and keeps them
// for its own lifetime. Only successful compilations are kept.
type ValidatorCache struct {
	store   *Store
	logger  *slog.Logger
	metrics *Metrics

	mu         sync.RWMutex
	validators map[Identifier]*Validator
	group      singleflight.Group
}

// NewValidatorCache creates a cache over store
func NewValidatorCache(store *Store, opts ...CacheOption) *ValidatorCache {
	cfg := &cacheConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &ValidatorCache{
		store:      store,
		logger:     cfg.logger.With("component", "validator-cache"),
		metrics:    cfg.metrics,
		validators: make(map[Identifier]*Validator),
	}
}

// Store returns the underlying schema store
func (c *ValidatorCache) Store() *Store {
	return c.store
}

// Get returns the validator for id. Store errors are returned unchanged.
func (c *ValidatorCache) Get(id Identifier) (*Validator, error) {
	if v, ok := c.cached(id); ok {
		c.metrics.recordLookup("validator", true)
		return v, nil
	}
	c.metrics.recordLookup("validator", false)

	v, err, _ := c.group.Do(id.String(), func() (interface{}, error) {
		if v, ok := c.cached(id); ok {
			return v, nil
		}

		doc, err := c.store.Get(id)
		if err != nil {
			return nil, err
		}

		v, err := c.compile(doc)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.validators[id] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Validator), nil
}

func (c *ValidatorCache) cached(id Identifier) (*Validator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.validators[id]
	return v, ok
}

func (c *ValidatorCache) compile(doc *Document) (*Validator, error) {
	url, err := c.store.URL(doc.ID)
	if err != nil {
		return nil, &SchemaError{Op: "compile", ID: doc.ID, Err: err}
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.LoadURL = c.store.open
	if err := compiler.AddResource(url, bytes.NewReader(doc.Raw)); err != nil {
		return nil, &SchemaError{Op: "compile", ID: doc.ID, Location: doc.Location, Err: fmt.Errorf("%w: %v", ErrInvalidSchema, err)}
	}

	compiled, err := compiler.Compile(url)
	if err != nil {
		c.logger.Warn("schema compilation failed", "schema", doc.ID.String(), "error", err)
		return nil, &SchemaError{Op: "compile", ID: doc.ID, Location: doc.Location, Err: fmt.Errorf("%w: %v", ErrInvalidSchema, err)}
	}

	c.metrics.recordCompile(doc.ID.Category)
	c.logger.Debug("validator compiled", "schema", doc.ID.String())

	return &Validator{ID: doc.ID, schema: compiled}, nil
}
