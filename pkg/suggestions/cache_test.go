package suggestions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	t.Run("orders by score then entity id", func(t *testing.T) {
		fields := map[string]string{
			"score:e2": "5",
			"name:e2":  "Globex Industries",
			"score:e1": "3",
			"name:e1":  "Acme Corp",
			"score:e3": "5",
			"name:e3":  "Initech",
		}

		out := parseSuggestions(fields)
		require.Len(t, out, 3)
		assert.Equal(t, "e2", out[0].EntityID)
		assert.Equal(t, "e3", out[1].EntityID)
		assert.Equal(t, "e1", out[2].EntityID)
		assert.Equal(t, "Globex Industries", out[0].Name)
	})

	t.Run("order is stable across calls", func(t *testing.T) {
		// two entries with equal scores; hash iteration order must not
		// leak into the result
		fields := map[string]string{
			"score:e1": "4",
			"score:e2": "4",
		}

		first := parseSuggestions(fields)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, parseSuggestions(fields))
		}
		require.Len(t, first, 2)
		assert.Equal(t, "e1", first[0].EntityID)
	})

	t.Run("skips decayed and malformed entries", func(t *testing.T) {
		fields := map[string]string{
			"score:e1": "0",
			"score:e2": "-2",
			"score:e3": "not a number",
			"name:e4":  "orphan name",
			"score:e5": "1.5",
		}

		out := parseSuggestions(fields)
		require.Len(t, out, 1)
		assert.Equal(t, "e5", out[0].EntityID)
		assert.InDelta(t, 1.5, out[0].Score, 1e-9)
	})

	t.Run("empty hash yields nothing", func(t *testing.T) {
		assert.Empty(t, parseSuggestions(nil))
		assert.Empty(t, parseSuggestions(map[string]string{}))
	})
}
