package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeRegistry(t *testing.T) {
	r := NewEventTypeRegistry()

	t.Run("resolves onboarded types", func(t *testing.T) {
		tests := map[string]string{
			"ocn.orca.decision.v1":     "orca.decision.v1",
			"ocn.orca.explanation.v1":  "orca.explanation.v1",
			"ocn.weave.audit.v1":       "weave.audit.v1",
			"ocn.orion.explanation.v1": "orion.explanation.v1",
			"ocn.okra.bnpl_quote.v1":   "okra.bnpl_quote.v1",
			"ocn.onyx.kyb_verified.v1": "onyx.kyb_verified.v1",
		}
		for wireType, name := range tests {
			id, err := r.Resolve(wireType)
			require.NoError(t, err, wireType)
			assert.Equal(t, Event(name), id)
			assert.True(t, r.IsRegistered(wireType))
		}
	})

	t.Run("unknown types are rejected", func(t *testing.T) {
		for _, wireType := range []string{"", "ocn.orca.decision.v2", "orca.decision.v1", "OCN.ORCA.DECISION.V1"} {
			_, err := r.Resolve(wireType)
			assert.ErrorIs(t, err, ErrUnknownEventType, wireType)
			assert.False(t, r.IsRegistered(wireType))
		}
	})

	t.Run("types are sorted", func(t *testing.T) {
		assert.Equal(t, []string{
			"ocn.okra.bnpl_quote.v1",
			"ocn.onyx.kyb_verified.v1",
			"ocn.orca.decision.v1",
			"ocn.orca.explanation.v1",
			"ocn.orion.explanation.v1",
			"ocn.weave.audit.v1",
		}, r.Types())
	})

	t.Run("custom table", func(t *testing.T) {
		custom := NewEventTypeRegistryFrom(map[string]string{"ocn.test.ping.v1": "ping.v1"})

		id, err := custom.Resolve("ocn.test.ping.v1")
		require.NoError(t, err)
		assert.Equal(t, Event("ping.v1"), id)
		assert.False(t, custom.IsRegistered("ocn.orca.decision.v1"))
	})
}
