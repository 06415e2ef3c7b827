package interceptors

import (
	"context"
	"errors"
	"sync"

	"github.com/ocn-network/ocn-common-go/contracts"
)

// ErrShortCircuit is returned when an interceptor wants to short-circuit the chain
var ErrShortCircuit = errors.New("interceptor chain short-circuited")

// ShortCircuitResult contains the result of a short-circuited operation
type ShortCircuitResult struct {
	Result interface{}
	Reason string
}

// ShortCircuitError represents a short-circuit with additional information
type ShortCircuitError struct {
	Result *ShortCircuitResult
}

// Error implements the error interface
func (e *ShortCircuitError) Error() string {
	if e.Result != nil && e.Result.Reason != "" {
		return e.Result.Reason
	}
	return "interceptor chain short-circuited"
}

// Is reports ErrShortCircuit as a match
func (e *ShortCircuitError) Is(target error) bool {
	return target == ErrShortCircuit
}

// IsShortCircuit checks if an error is a short-circuit error
func IsShortCircuit(err error) bool {
	return err != nil && errors.Is(err, ErrShortCircuit)
}

// GetShortCircuitResult extracts the short-circuit result from an error
func GetShortCircuitResult(err error) (*ShortCircuitResult, bool) {
	var scErr *ShortCircuitError
	if errors.As(err, &scErr) && scErr.Result != nil {
		return scErr.Result, true
	}
	return nil, false
}

// DuplicateDetector tracks which event IDs have been processed
type DuplicateDetector interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// DuplicateDetectionInterceptor drops redelivered events. CloudEvents are
// unique by (source, id), so the key combines both.
type DuplicateDetectionInterceptor struct {
	detector DuplicateDetector
}

// NewDuplicateDetectionInterceptor creates a new duplicate detection interceptor
func NewDuplicateDetectionInterceptor(detector DuplicateDetector) *DuplicateDetectionInterceptor {
	return &DuplicateDetectionInterceptor{detector: detector}
}

// Intercept implements Interceptor
func (i *DuplicateDetectionInterceptor) Intercept(ctx context.Context, evt *contracts.Event, next EventHandler) error {
	key := evt.Source + "#" + evt.ID

	isDuplicate, err := i.detector.IsDuplicate(ctx, key)
	if err != nil {
		return err
	}

	if isDuplicate {
		return &ShortCircuitError{
			Result: &ShortCircuitResult{
				Result: evt.ID,
				Reason: "duplicate event detected",
			},
		}
	}

	if err := next.Handle(ctx, evt); err != nil {
		return err
	}

	return i.detector.MarkProcessed(ctx, key)
}

// Name implements Interceptor
func (i *DuplicateDetectionInterceptor) Name() string {
	return "DuplicateDetectionInterceptor"
}

// MemoryDuplicateDetector remembers processed keys for the life of the process
type MemoryDuplicateDetector struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewMemoryDuplicateDetector creates an empty detector
func NewMemoryDuplicateDetector() *MemoryDuplicateDetector {
	return &MemoryDuplicateDetector{seen: make(map[string]struct{})}
}

// IsDuplicate implements DuplicateDetector
func (d *MemoryDuplicateDetector) IsDuplicate(ctx context.Context, eventID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[eventID]
	return ok, nil
}

// MarkProcessed implements DuplicateDetector
func (d *MemoryDuplicateDetector) MarkProcessed(ctx context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = struct{}{}
	return nil
}
