package patterns_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalabs/harmonia/patterns"
)

func TestRegistryBuiltins(t *testing.T) {
	registry := patterns.NewRegistry()

	identity, err := registry.Get("identity")
	require.NoError(t, err)
	assert.InDelta(t, 0.42, identity(0.42), 1e-9)

	for _, name := range []string{"logistic", "logistic_dorian", "logistic_mixolydian", "logistic_phrygian"} {
		fn, err := registry.Get(name)
		require.NoError(t, err, name)

		// Logistic variants stay in (0, 1) and are increasing
		low, high := fn(0.1), fn(0.9)
		assert.Greater(t, high, low, name)
		assert.Greater(t, low, 0.0, name)
		assert.Less(t, high, 1.0, name)
	}
}

func TestRegistryRegisterIsAppendOnly(t *testing.T) {
	registry := patterns.NewRegistry()

	err := registry.Register("custom", func(score float64) float64 { return score * 0.5 })
	require.NoError(t, err)

	err = registry.Register("custom", func(score float64) float64 { return score })
	var dupErr *patterns.DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "custom", dupErr.Name)

	// The first registration survives
	fn, err := registry.Get("custom")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fn(0.5), 1e-9)
}

func TestRegistryGetUnknown(t *testing.T) {
	registry := patterns.NewRegistry()

	_, err := registry.Get("nope")
	var unknownErr *patterns.UnknownPluginError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Name)
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := patterns.NewRegistry()
	require.NoError(t, registry.Register("aaa_custom", func(score float64) float64 { return score }))

	names := registry.Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "identity")
	assert.Contains(t, names, "aaa_custom")
}
