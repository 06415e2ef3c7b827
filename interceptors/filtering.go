package interceptors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ocn-network/ocn-common-go/contracts"
)

// EventFilter decides whether an event should reach the handler
type EventFilter interface {
	// ShouldProcess returns true if the event should be processed
	ShouldProcess(ctx context.Context, evt *contracts.Event) (bool, error)
}

// EventFilterFunc is a function adapter for EventFilter
type EventFilterFunc func(ctx context.Context, evt *contracts.Event) (bool, error)

// ShouldProcess implements EventFilter
func (f EventFilterFunc) ShouldProcess(ctx context.Context, evt *contracts.Event) (bool, error) {
	return f(ctx, evt)
}

// SkipBehavior defines what happens when an event is filtered out
type SkipBehavior int

const (
	// SkipSilently skips the event without error
	SkipSilently SkipBehavior = iota
	// SkipWithError returns an error when the event is filtered
	SkipWithError
	// SkipWithLog logs that the event was skipped
	SkipWithLog
)

// FilteringInterceptor filters events based on conditions
type FilteringInterceptor struct {
	filter       EventFilter
	skipBehavior SkipBehavior
	logger       *slog.Logger
}

// NewFilteringInterceptor creates a new filtering interceptor
func NewFilteringInterceptor(filter EventFilter, skipBehavior SkipBehavior) *FilteringInterceptor {
	return &FilteringInterceptor{
		filter:       filter,
		skipBehavior: skipBehavior,
		logger:       slog.Default(),
	}
}

// WithLogger sets the logger used by SkipWithLog
func (i *FilteringInterceptor) WithLogger(logger *slog.Logger) *FilteringInterceptor {
	if logger != nil {
		i.logger = logger
	}
	return i
}

// Intercept implements Interceptor
func (i *FilteringInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	shouldProcess, err := i.filter.ShouldProcess(ctx, evt)
	if err != nil {
		return fmt.Errorf("filter error: %w", err)
	}

	if !shouldProcess {
		switch i.skipBehavior {
		case SkipWithError:
			return fmt.Errorf("event filtered: type=%s, id=%s", evt.Type, evt.ID)
		case SkipWithLog:
			i.logger.Info("event skipped by filter", "eventId", evt.ID, "eventType", evt.Type)
			return nil
		default:
			return nil
		}
	}

	return next.Handle(ctx, evt)
}

// Name implements Interceptor
func (i *FilteringInterceptor) Name() string {
	return "FilteringInterceptor"
}

// CompositeFilter combines multiple filters with AND logic
type CompositeFilter struct {
	filters []EventFilter
}

// NewCompositeFilter creates a new composite filter
func NewCompositeFilter(filters ...EventFilter) *CompositeFilter {
	return &CompositeFilter{filters: filters}
}

// ShouldProcess implements EventFilter - all filters must return true
func (f *CompositeFilter) ShouldProcess(ctx context.Context, evt *contracts.Event) (bool, error) {
	for _, filter := range f.filters {
		shouldProcess, err := filter.ShouldProcess(ctx, evt)
		if err != nil {
			return false, err
		}
		if !shouldProcess {
			return false, nil
		}
	}
	return true, nil
}

// OrFilter combines multiple filters with OR logic
type OrFilter struct {
	filters []EventFilter
}

// NewOrFilter creates a new OR filter
func NewOrFilter(filters ...EventFilter) *OrFilter {
	return &OrFilter{filters: filters}
}

// ShouldProcess implements EventFilter - at least one filter must return true
func (f *OrFilter) ShouldProcess(ctx context.Context, evt *contracts.Event) (bool, error) {
	for _, filter := range f.filters {
		shouldProcess, err := filter.ShouldProcess(ctx, evt)
		if err != nil {
			return false, err
		}
		if shouldProcess {
			return true, nil
		}
	}
	return false, nil
}

// EventTypeFilter admits events whose type matches a glob pattern and a
// version constraint, e.g. ("ocn.orca.*", ">=1"). Types that do not parse as
// ocn.<producer>.<name>.v<N> are rejected.
type EventTypeFilter struct {
	pattern string
	version string
}

// NewEventTypeFilter creates a type filter; empty arguments match anything
func NewEventTypeFilter(pattern, version string) *EventTypeFilter {
	return &EventTypeFilter{pattern: pattern, version: version}
}

// ShouldProcess implements EventFilter
func (f *EventTypeFilter) ShouldProcess(ctx context.Context, evt *contracts.Event) (bool, error) {
	et, err := contracts.ParseEventType(evt.Type)
	if err != nil {
		return false, nil
	}
	return et.Matches(f.pattern, f.version), nil
}

// ConditionalInterceptor executes an interceptor only if a condition is met
type ConditionalInterceptor struct {
	condition   EventFilter
	interceptor Interceptor
}

// NewConditionalInterceptor creates a new conditional interceptor
func NewConditionalInterceptor(condition EventFilter, interceptor Interceptor) *ConditionalInterceptor {
	return &ConditionalInterceptor{
		condition:   condition,
		interceptor: interceptor,
	}
}

// Intercept implements Interceptor
func (i *ConditionalInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	shouldExecute, err := i.condition.ShouldProcess(ctx, evt)
	if err != nil {
		return err
	}

	if shouldExecute {
		return i.interceptor.Intercept(ctx, evt, next)
	}

	return next.Handle(ctx, evt)
}

// Name implements Interceptor
func (i *ConditionalInterceptor) Name() string {
	return fmt.Sprintf("ConditionalInterceptor[%s]", i.interceptor.Name())
}
