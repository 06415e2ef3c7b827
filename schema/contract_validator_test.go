package schema

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepositoryValidator(t *testing.T, opts ...ContractOption) *ContractValidator {
	t.Helper()
	store := NewStore(WithBasePath(".."), WithStoreLogger(discardLogger()))
	cache := NewValidatorCache(store, WithCacheLogger(discardLogger()))
	opts = append([]ContractOption{WithLogger(discardLogger())}, opts...)
	return NewContractValidator(cache, NewEventTypeRegistry(), opts...)
}

// loadExample reads a fixture from examples/ as a mutable generic map
func loadExample(t *testing.T, rel string) map[string]interface{} {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "examples", rel))
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func dataOf(t *testing.T, event map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := event["data"].(map[string]interface{})
	require.True(t, ok, "event has no data object")
	return data
}

func TestContractValidator_ValidatePayload(t *testing.T) {
	cv := newRepositoryValidator(t)

	t.Run("valid payment mandate", func(t *testing.T) {
		payment := loadExample(t, "mandates/payment_mandate_example.json")
		assert.NoError(t, cv.ValidatePayload(payment, "payment_mandate"))
	})

	t.Run("valid intent mandate as raw bytes", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join("..", "examples", "mandates", "intent_mandate_example.json"))
		require.NoError(t, err)
		assert.NoError(t, cv.ValidatePayload(raw, "intent_mandate"))
	})

	t.Run("missing required field", func(t *testing.T) {
		payment := loadExample(t, "mandates/payment_mandate_example.json")
		delete(payment, "payment_id")

		err := cv.ValidatePayload(payment, "payment_mandate")

		assert.ErrorIs(t, err, ErrValidationFailed)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "payment_mandate", validationErr.Subject)
		assert.Equal(t, "/required", validationErr.Violation.SchemaPath)
	})

	t.Run("risk score above range", func(t *testing.T) {
		payment := loadExample(t, "mandates/payment_mandate_example.json")
		payment["risk_score"] = 1.5

		err := cv.ValidatePayload(payment, "payment_mandate")

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "/risk_score", validationErr.Violation.Path)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		err := cv.ValidatePayload(`{"payment_id": `, "payment_mandate")

		assert.ErrorIs(t, err, ErrMalformedJSON)
		assert.NotErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unknown schema", func(t *testing.T) {
		err := cv.ValidatePayload(`{}`, "refund_mandate")

		assert.ErrorIs(t, err, ErrSchemaNotFound)
	})
}

func TestContractValidator_ValidateCloudEvent(t *testing.T) {
	cv := newRepositoryValidator(t)

	t.Run("every example validates against its registered type", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Join("..", "examples", "events"))
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		for _, entry := range entries {
			event := loadExample(t, filepath.Join("events", entry.Name()))
			wireType, _ := event["type"].(string)
			require.True(t, cv.Registry().IsRegistered(wireType), "%s uses unregistered type %q", entry.Name(), wireType)
			assert.NoError(t, cv.ValidateCloudEvent(event, wireType), entry.Name())
		}
	})

	tests := []struct {
		name    string
		example string
		mutate  func(t *testing.T, event map[string]interface{})
	}{
		{
			name:    "orion type of another version",
			example: "events/orion_explanation_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				event["type"] = "ocn.orion.explanation.v2"
			},
		},
		{
			name:    "orion without best rail",
			example: "events/orion_explanation_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				result := dataOf(t, event)["verification_result"].(map[string]interface{})
				delete(result, "best_rail")
			},
		},
		{
			name:    "orion with unknown rail",
			example: "events/orion_explanation_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				result := dataOf(t, event)["verification_result"].(map[string]interface{})
				result["best_rail"] = "CHEQUE"
			},
		},
		{
			name:    "okra with plain http source",
			example: "events/okra_bnpl_quote_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				event["source"] = "http://okra.ocn.ai/v1/bnpl"
			},
		},
		{
			name:    "okra score above range",
			example: "events/okra_bnpl_quote_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				quote := dataOf(t, event)["quote_result"].(map[string]interface{})
				quote["score"] = 1.5
			},
		},
		{
			name:    "onyx with unknown status",
			example: "events/onyx_kyb_verified_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				result := dataOf(t, event)["verification_result"].(map[string]interface{})
				result["status"] = "maybe"
			},
		},
		{
			name:    "onyx with unknown check status",
			example: "events/onyx_kyb_verified_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				result := dataOf(t, event)["verification_result"].(map[string]interface{})
				checks := result["checks"].([]interface{})
				checks[0].(map[string]interface{})["status"] = "skipped"
			},
		},
		{
			name:    "unsupported specversion",
			example: "events/orca_decision_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				event["specversion"] = "2.0"
			},
		},
		{
			name:    "non JSON data content type",
			example: "events/orca_decision_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				event["datacontenttype"] = "application/xml"
			},
		},
		{
			name:    "missing subject",
			example: "events/orca_decision_example.json",
			mutate: func(t *testing.T, event map[string]interface{}) {
				delete(event, "subject")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := loadExample(t, tt.example)
			wireType := event["type"].(string)
			tt.mutate(t, event)

			err := cv.ValidateCloudEvent(event, wireType)

			assert.ErrorIs(t, err, ErrValidationFailed)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, wireType, validationErr.Subject)
		})
	}

	t.Run("unknown type fails before any schema is read", func(t *testing.T) {
		fsys, _ := newCountingFS(map[string]string{
			"common/events/v1/orca.decision.v1.schema.json": paymentSchema,
		})
		cv := NewContractValidator(
			NewValidatorCache(newTestStore(fsys), WithCacheLogger(discardLogger())),
			nil,
			WithLogger(discardLogger()),
		)

		err := cv.ValidateCloudEvent(`{"specversion": "1.0"}`, "ocn.nobody.unknown.v1")

		assert.ErrorIs(t, err, ErrUnknownEventType)
		assert.Equal(t, 0, fsys.total())
	})

	t.Run("malformed JSON", func(t *testing.T) {
		err := cv.ValidateCloudEvent([]byte(`{"specversion"`), "ocn.orca.decision.v1")

		assert.ErrorIs(t, err, ErrMalformedJSON)
	})
}

func TestContractValidator_Violations(t *testing.T) {
	cv := newRepositoryValidator(t)

	t.Run("malformed input yields one synthetic violation", func(t *testing.T) {
		violations := cv.Violations(`not json`, "payment_mandate", CategoryMandate)

		require.Len(t, violations, 1)
		assert.Empty(t, violations[0].Path)
		assert.Contains(t, violations[0].Message, ErrMalformedJSON.Error())
	})

	t.Run("unknown schema yields one synthetic violation", func(t *testing.T) {
		violations := cv.Violations(`{}`, "missing", CategoryEvent)

		require.Len(t, violations, 1)
		assert.Contains(t, violations[0].Message, ErrSchemaNotFound.Error())
	})

	t.Run("valid input yields an empty list", func(t *testing.T) {
		payment := loadExample(t, "mandates/payment_mandate_example.json")

		violations := cv.Violations(payment, "payment_mandate", CategoryMandate)

		assert.NotNil(t, violations)
		assert.Empty(t, violations)
	})

	t.Run("reports every problem", func(t *testing.T) {
		payment := loadExample(t, "mandates/payment_mandate_example.json")
		delete(payment, "cart_id")
		payment["risk_score"] = 2
		payment["currency"] = "usd"

		violations := cv.Violations(payment, "payment_mandate", CategoryMandate)

		assert.GreaterOrEqual(t, len(violations), 3)
		paths := make([]string, 0, len(violations))
		for _, v := range violations {
			paths = append(paths, v.Path)
		}
		assert.Contains(t, paths, "/risk_score")
		assert.Contains(t, paths, "/currency")
	})

	t.Run("event schemas by name", func(t *testing.T) {
		event := loadExample(t, "events/orca_decision_example.json")

		assert.Empty(t, cv.Violations(event, "orca.decision.v1", CategoryEvent))
	})
}

func TestContractValidator_ListAvailable(t *testing.T) {
	cv := newRepositoryValidator(t)

	mandates, err := cv.ListAvailable(CategoryMandate)
	require.NoError(t, err)
	assert.Equal(t, []string{"cart_mandate", "intent_mandate", "payment_mandate"}, mandates)

	events, err := cv.ListAvailable(CategoryEvent)
	require.NoError(t, err)
	for _, wireType := range cv.Registry().Types() {
		id, err := cv.Registry().Resolve(wireType)
		require.NoError(t, err)
		assert.Contains(t, events, id.Name, "registered type %s has no schema file", wireType)
	}
}

func TestContractValidator_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	cv := newRepositoryValidator(t, WithMetrics(metrics))

	payment := loadExample(t, "mandates/payment_mandate_example.json")
	require.NoError(t, cv.ValidatePayload(payment, "payment_mandate"))

	payment["risk_score"] = 3
	require.Error(t, cv.ValidatePayload(payment, "payment_mandate"))

	require.Error(t, cv.ValidateCloudEvent(`{}`, "ocn.unknown.thing.v1"))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Validations.WithLabelValues("payload", "valid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Validations.WithLabelValues("payload", "invalid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Validations.WithLabelValues("cloudevent", "error")))
}

func TestDecode(t *testing.T) {
	t.Run("numbers keep their precision", func(t *testing.T) {
		v, err := Decode(`{"amount": 12345678901234567890}`)
		require.NoError(t, err)

		amount := v.(map[string]interface{})["amount"]
		assert.Equal(t, json.Number("12345678901234567890"), amount)
	})

	t.Run("structs are accepted", func(t *testing.T) {
		v, err := Decode(struct {
			ID string `json:"id"`
		}{ID: "x"})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "x"}, v)
	})

	t.Run("trailing data after the value is malformed", func(t *testing.T) {
		for _, payload := range []string{`{"a":1} x`, `{"a":1} {"b":2}`, `[1] ]`} {
			_, err := Decode(payload)
			assert.ErrorIs(t, err, ErrMalformedJSON, payload)
		}
	})

	t.Run("surrounding whitespace is accepted", func(t *testing.T) {
		v, err := Decode([]byte("\n {\"a\": 1}\n"))
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"a": json.Number("1")}, v)
	})

	t.Run("unmarshalable values are malformed", func(t *testing.T) {
		_, err := Decode(make(chan int))
		assert.ErrorIs(t, err, ErrMalformedJSON)
	})
}
