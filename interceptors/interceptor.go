package interceptors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ocn-network/ocn-common-go/contracts"
	"github.com/ocn-network/ocn-common-go/schema"
	"github.com/ocn-network/ocn-common-go/trace"
)

// EventHandler handles a consumed CloudEvent
type EventHandler interface {
	Handle(ctx context.Context, evt *contracts.Event) error
}

// EventHandlerFunc is a function adapter for EventHandler
type EventHandlerFunc func(ctx context.Context, evt *contracts.Event) error

// Handle implements EventHandler
func (f EventHandlerFunc) Handle(ctx context.Context, evt *contracts.Event) error {
	return f(ctx, evt)
}

// Interceptor processes events before they reach the final handler
type Interceptor interface {
	// Intercept processes an event and calls the next handler in the chain
	Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error

	// Name returns the interceptor name for logging and debugging
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, evt *contracts.Event, next EventHandler) error
}

// NewInterceptorFunc creates a new function-based interceptor
func NewInterceptorFunc(name string, fn func(ctx context.Context, evt *contracts.Event, next EventHandler) error) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Intercept implements Interceptor
func (i *InterceptorFunc) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	return i.fn(ctx, evt, next)
}

// Name implements Interceptor
func (i *InterceptorFunc) Name() string {
	return i.name
}

// InterceptorChain manages a chain of interceptors
type InterceptorChain struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

// NewInterceptorChain creates a new interceptor chain
func NewInterceptorChain(logger *slog.Logger) *InterceptorChain {
	if logger == nil {
		logger = slog.Default()
	}

	return &InterceptorChain{
		interceptors: make([]Interceptor, 0),
		logger:       logger,
	}
}

// Add adds an interceptor to the chain
func (c *InterceptorChain) Add(interceptor Interceptor) *InterceptorChain {
	c.interceptors = append(c.interceptors, interceptor)
	return c
}

// Names returns the interceptor names in execution order
func (c *InterceptorChain) Names() []string {
	names := make([]string, len(c.interceptors))
	for i, interceptor := range c.interceptors {
		names[i] = interceptor.Name()
	}
	return names
}

// Execute runs evt through the chain and then finalHandler. Interceptors
// run in the order they were added.
func (c *InterceptorChain) Execute(ctx context.Context, evt *contracts.Event, finalHandler EventHandler) error {
	if len(c.interceptors) == 0 {
		return finalHandler.Handle(ctx, evt)
	}

	handler := finalHandler
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		currentHandler := handler
		handler = EventHandlerFunc(func(ctx context.Context, evt *contracts.Event) error {
			return interceptor.Intercept(ctx, evt, currentHandler)
		})
	}

	return handler.Handle(ctx, evt)
}

// LoggingInterceptor logs event processing with the event's trace ID
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *LoggingInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	start := time.Now()
	logger := trace.Logger(ctx, i.logger)

	logger.Info("processing event",
		"eventId", evt.ID,
		"eventType", evt.Type,
		"source", evt.Source,
	)

	err := next.Handle(ctx, evt)
	duration := time.Since(start)

	if err != nil {
		logger.Error("event processing failed",
			"eventId", evt.ID,
			"eventType", evt.Type,
			"duration", duration,
			"error", err,
		)
	} else {
		logger.Info("event processed",
			"eventId", evt.ID,
			"eventType", evt.Type,
			"duration", duration,
		)
	}

	return err
}

// Name implements Interceptor
func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// MetricsInterceptor collects metrics about event processing
type MetricsInterceptor struct {
	collector MetricsCollector
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementEventCount(eventType string)
	RecordProcessingTime(eventType string, duration time.Duration)
	IncrementErrorCount(eventType string, errorType string)
}

// NewMetricsInterceptor creates a new metrics interceptor
func NewMetricsInterceptor(collector MetricsCollector) *MetricsInterceptor {
	return &MetricsInterceptor{collector: collector}
}

// Intercept implements Interceptor
func (i *MetricsInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	start := time.Now()

	i.collector.IncrementEventCount(evt.Type)

	err := next.Handle(ctx, evt)

	i.collector.RecordProcessingTime(evt.Type, time.Since(start))

	if err != nil {
		i.collector.IncrementErrorCount(evt.Type, errorType(err))
	}

	return err
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "MetricsInterceptor"
}

func errorType(err error) string {
	switch {
	case errors.Is(err, schema.ErrValidationFailed):
		return "validation_error"
	case errors.Is(err, schema.ErrUnknownEventType):
		return "unknown_type"
	case IsShortCircuit(err):
		return "short_circuit"
	default:
		return "processing_error"
	}
}

// TraceInterceptor puts the event's trace ID on the context. Events whose
// subject is not a valid trace ID get a fresh one before reaching the handler.
type TraceInterceptor struct {
	logger *slog.Logger
}

// NewTraceInterceptor creates a new trace interceptor
func NewTraceInterceptor(logger *slog.Logger) *TraceInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return &TraceInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (i *TraceInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	if !trace.IsValid(evt.Subject) {
		id := trace.NewID()
		i.logger.Debug("event carries no usable trace id, assigning one",
			"eventId", evt.ID,
			"subject", evt.Subject,
			"trace_id", id,
		)
		evt = evt.WithTraceID(id)
	}

	return next.Handle(evt.Context(ctx), evt)
}

// Name implements Interceptor
func (i *TraceInterceptor) Name() string {
	return "TraceInterceptor"
}

// EventValidator checks an event against the contract registered for its type.
// *schema.ContractValidator satisfies it.
type EventValidator interface {
	ValidateCloudEvent(payload interface{}, wireType string) error
}

// ValidationInterceptor rejects events that do not match their contract.
// The handler is not invoked for rejected events.
type ValidationInterceptor struct {
	validator EventValidator
}

// NewValidationInterceptor creates a new validation interceptor
func NewValidationInterceptor(validator EventValidator) *ValidationInterceptor {
	return &ValidationInterceptor{validator: validator}
}

// Intercept implements Interceptor. Parsed events are checked as received so
// attributes missing from the wire are not filled with zero values.
func (i *ValidationInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	var payload interface{} = evt
	if raw := evt.Raw(); len(raw) > 0 {
		payload = raw
	}

	if err := i.validator.ValidateCloudEvent(payload, evt.Type); err != nil {
		return fmt.Errorf("event %s rejected: %w", evt.ID, err)
	}

	return next.Handle(ctx, evt)
}

// Name implements Interceptor
func (i *ValidationInterceptor) Name() string {
	return "ValidationInterceptor"
}

// TimeoutInterceptor bounds the time a handler may take
type TimeoutInterceptor struct {
	timeout time.Duration
}

// NewTimeoutInterceptor creates a new timeout interceptor
func NewTimeoutInterceptor(timeout time.Duration) *TimeoutInterceptor {
	return &TimeoutInterceptor{timeout: timeout}
}

// Intercept implements Interceptor
func (i *TimeoutInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- next.Handle(timeoutCtx, evt)
	}()

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		return fmt.Errorf("event processing timeout after %v for event %s", i.timeout, evt.ID)
	}
}

// Name implements Interceptor
func (i *TimeoutInterceptor) Name() string {
	return "TimeoutInterceptor"
}

// DefaultInterceptorChainBuilder builds a common interceptor chain
type DefaultInterceptorChainBuilder struct {
	chain  *InterceptorChain
	logger *slog.Logger
}

// NewDefaultInterceptorChainBuilder creates a new builder
func NewDefaultInterceptorChainBuilder(logger *slog.Logger) *DefaultInterceptorChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultInterceptorChainBuilder{
		chain:  NewInterceptorChain(logger),
		logger: logger,
	}
}

// WithTrace adds the trace interceptor
func (b *DefaultInterceptorChainBuilder) WithTrace() *DefaultInterceptorChainBuilder {
	b.chain.Add(NewTraceInterceptor(b.logger))
	return b
}

// WithLogging adds logging interceptor
func (b *DefaultInterceptorChainBuilder) WithLogging() *DefaultInterceptorChainBuilder {
	b.chain.Add(NewLoggingInterceptor(b.logger))
	return b
}

// WithMetrics adds metrics interceptor
func (b *DefaultInterceptorChainBuilder) WithMetrics(collector MetricsCollector) *DefaultInterceptorChainBuilder {
	b.chain.Add(NewMetricsInterceptor(collector))
	return b
}

// WithValidation adds validation interceptor
func (b *DefaultInterceptorChainBuilder) WithValidation(validator EventValidator) *DefaultInterceptorChainBuilder {
	b.chain.Add(NewValidationInterceptor(validator))
	return b
}

// WithTimeout adds timeout interceptor
func (b *DefaultInterceptorChainBuilder) WithTimeout(timeout time.Duration) *DefaultInterceptorChainBuilder {
	b.chain.Add(NewTimeoutInterceptor(timeout))
	return b
}

// WithCustom adds a custom interceptor
func (b *DefaultInterceptorChainBuilder) WithCustom(interceptor Interceptor) *DefaultInterceptorChainBuilder {
	b.chain.Add(interceptor)
	return b
}

// Build returns the built interceptor chain
func (b *DefaultInterceptorChainBuilder) Build() *InterceptorChain {
	return b.chain
}
