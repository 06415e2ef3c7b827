package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ocn-network/ocn-common-go/schema"
)

// SchemaChecker compiles every registered event type and every mandate on
// disk. A passing check leaves all validators warm in the cache.
type SchemaChecker struct {
	validators *schema.ValidatorCache
	registry   *schema.EventTypeRegistry
}

// NewSchemaChecker creates a checker over the given cache and registry
func NewSchemaChecker(validators *schema.ValidatorCache, registry *schema.EventTypeRegistry) *SchemaChecker {
	return &SchemaChecker{
		validators: validators,
		registry:   registry,
	}
}

func (c *SchemaChecker) Name() string {
	return "schemas"
}

func (c *SchemaChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	ids, err := c.identifiers()
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = "Schema tree unreadable"
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	var failed []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Status = StatusUnhealthy
			result.Message = "Check cancelled"
			result.Error = err.Error()
			result.Duration = time.Since(start)
			return result
		}
		if _, err := c.validators.Get(id); err != nil {
			failed = append(failed, id.String())
			result.Details[id.String()] = err.Error()
		}
	}

	result.Details["schemas_checked"] = len(ids)
	result.Duration = time.Since(start)

	if len(failed) > 0 {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("%d of %d schemas failed to compile", len(failed), len(ids))
		return result
	}

	result.Status = StatusHealthy
	result.Message = "All schemas compile"
	return result
}

func (c *SchemaChecker) identifiers() ([]schema.Identifier, error) {
	mandates, err := c.validators.Store().ListAvailable(schema.CategoryMandate)
	if err != nil {
		return nil, err
	}

	ids := make([]schema.Identifier, 0, len(mandates)+len(c.registry.Types()))
	for _, name := range mandates {
		ids = append(ids, schema.Mandate(name))
	}
	for _, wireType := range c.registry.Types() {
		id, err := c.registry.Resolve(wireType)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
