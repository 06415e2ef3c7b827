package schema

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["specversion", "type", "data"],
  "properties": {
    "specversion": { "const": "1.0" },
    "data": { "type": "object" }
  }
}`

const pingEventSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "envelope.schema.json",
  "properties": {
    "type": { "const": "ocn.test.ping.v1" },
    "data": {
      "type": "object",
      "required": ["count"],
      "properties": { "count": { "type": "integer", "minimum": 0 } }
    }
  }
}`

func mustDecode(t *testing.T, payload string) interface{} {
	t.Helper()
	v, err := Decode(payload)
	require.NoError(t, err)
	return v
}

func TestValidatorCache_Get(t *testing.T) {
	loc := "common/mandates/payment_mandate.schema.json"

	t.Run("compiles once per identifier", func(t *testing.T) {
		fsys, _ := newCountingFS(map[string]string{loc: paymentSchema})
		metrics := NewMetrics(prometheus.NewRegistry())
		cache := NewValidatorCache(newTestStore(fsys, WithStoreMetrics(metrics)), WithCacheMetrics(metrics), WithCacheLogger(discardLogger()))

		first, err := cache.Get(Mandate("payment_mandate"))
		require.NoError(t, err)
		second, err := cache.Get(Mandate("payment_mandate"))
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, Mandate("payment_mandate"), first.ID)
		assert.Equal(t, 1, fsys.count(loc))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Compilations.WithLabelValues("mandates")))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("validator", "hit")))
	})

	t.Run("store errors propagate unchanged", func(t *testing.T) {
		fsys, _ := newCountingFS(nil)
		cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))

		_, err := cache.Get(Mandate("payment_mandate"))

		assert.ErrorIs(t, err, ErrSchemaNotFound)
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "load", schemaErr.Op)
	})

	t.Run("unresolvable reference fails compilation", func(t *testing.T) {
		fsys, _ := newCountingFS(map[string]string{
			"common/mandates/broken.schema.json": `{"$ref": "missing.schema.json"}`,
		})
		cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))

		_, err := cache.Get(Mandate("broken"))

		assert.ErrorIs(t, err, ErrInvalidSchema)
		assert.NotErrorIs(t, err, ErrSchemaNotFound)
		var schemaErr *SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, "compile", schemaErr.Op)
	})

	t.Run("failed compilation is retried", func(t *testing.T) {
		fsys, mapFS := newCountingFS(map[string]string{
			"common/mandates/broken.schema.json": `{"$ref": "missing.schema.json"}`,
		})
		cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))

		_, err := cache.Get(Mandate("broken"))
		require.Error(t, err)

		mapFS["common/mandates/missing.schema.json"] = mapFile(`{"type": "string"}`)

		v, err := cache.Get(Mandate("broken"))
		require.NoError(t, err)
		assert.Empty(t, v.Violations(mustDecode(t, `"hello"`)))
	})

	t.Run("references between files resolve through the store", func(t *testing.T) {
		fsys, _ := newCountingFS(map[string]string{
			"common/events/v1/envelope.schema.json": envelopeSchema,
			"common/events/v1/ping.v1.schema.json":  pingEventSchema,
		})
		cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))

		v, err := cache.Get(Event("ping.v1"))
		require.NoError(t, err)

		valid := mustDecode(t, `{"specversion": "1.0", "type": "ocn.test.ping.v1", "data": {"count": 3}}`)
		assert.Empty(t, v.Violations(valid))

		missingEnvelopeField := mustDecode(t, `{"type": "ocn.test.ping.v1", "data": {"count": 3}}`)
		assert.NotEmpty(t, v.Violations(missingEnvelopeField))

		// The envelope document is now cached like any other.
		_, err = cache.Store().Get(Event("envelope"))
		require.NoError(t, err)
		assert.Equal(t, 1, fsys.count("common/events/v1/envelope.schema.json"))
	})

	t.Run("concurrent first access converges on one validator", func(t *testing.T) {
		fsys, _ := newCountingFS(map[string]string{loc: paymentSchema})
		cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))

		const workers = 16
		validators := make([]*Validator, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := cache.Get(Mandate("payment_mandate"))
				assert.NoError(t, err)
				validators[i] = v
			}(i)
		}
		wg.Wait()

		for _, v := range validators {
			assert.Same(t, validators[0], v)
		}
	})
}

func TestValidator_Violations(t *testing.T) {
	fsys, _ := newCountingFS(map[string]string{
		"common/mandates/payment_mandate.schema.json": paymentSchema,
	})
	cache := NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger()))
	v, err := cache.Get(Mandate("payment_mandate"))
	require.NoError(t, err)

	t.Run("conforming instance has no violations", func(t *testing.T) {
		instance := mustDecode(t, `{"payment_id": "pay-1", "risk_score": 0.5}`)

		assert.Nil(t, v.Violations(instance))
		_, failed := v.First(instance)
		assert.False(t, failed)
	})

	t.Run("collects every leaf violation", func(t *testing.T) {
		instance := mustDecode(t, `{"risk_score": 1.5}`)

		violations := v.Violations(instance)

		require.Len(t, violations, 2)
		schemaPaths := []string{violations[0].SchemaPath, violations[1].SchemaPath}
		assert.Contains(t, schemaPaths, "/required")
		assert.Contains(t, schemaPaths, "/properties/risk_score/maximum")
		for _, violation := range violations {
			assert.NotEmpty(t, violation.Message)
			if violation.SchemaPath == "/properties/risk_score/maximum" {
				assert.Equal(t, "/risk_score", violation.Path)
			}
		}
	})

	t.Run("first returns the first collected violation", func(t *testing.T) {
		instance := mustDecode(t, `{"payment_id": "", "risk_score": 0.1}`)

		violation, failed := v.First(instance)

		require.True(t, failed)
		assert.Equal(t, "/payment_id", violation.Path)
		assert.Equal(t, "/properties/payment_id/minLength", violation.SchemaPath)

		err := v.Validate(instance)
		assert.ErrorIs(t, err, ErrValidationFailed)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "payment_mandate", validationErr.Subject)
		assert.Equal(t, violation, validationErr.Violation)
	})
}
