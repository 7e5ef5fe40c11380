package topic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResolvesDependencies(t *testing.T) {
	reg, errs := NewRegistry(nil,
		Definition{Name: "advanced_budgeting", Dependencies: []string{"personal_finance"}},
		Definition{Name: "personal_finance"},
		Definition{Name: "career_advice"},
	)

	require.Empty(t, errs)
	assert.Equal(t, []string{"personal_finance", "career_advice", "advanced_budgeting"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
}

func TestBuildDropsUnresolvedTopics(t *testing.T) {
	reg, errs := NewRegistry(nil,
		Definition{Name: "orphan", Dependencies: []string{"missing"}},
		Definition{Name: "child_of_orphan", Dependencies: []string{"orphan"}},
		Definition{Name: "standalone"},
	)

	assert.Equal(t, []string{"standalone"}, reg.Names())
	require.Len(t, errs, 2)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, "orphan", loadErr.Name)
	assert.Contains(t, loadErr.Error(), "missing")
}

func TestBuildRejectsInvalidTopics(t *testing.T) {
	reg, errs := NewRegistry(nil,
		Definition{Name: ""},
		Definition{Name: "bad_regex", Patterns: []PatternSpec{{Regex: "(unclosed"}}},
		Definition{Name: "dup"},
		Definition{Name: "dup"},
		Definition{Name: "needs_bad", Dependencies: []string{"bad_regex"}},
	)

	assert.Equal(t, []string{"dup"}, reg.Names())
	assert.Len(t, errs, 4)
	for _, err := range errs {
		var loadErr *LoadError
		assert.True(t, errors.As(err, &loadErr), "unexpected error type %T", err)
	}
}

func TestRegistryGet(t *testing.T) {
	reg, _ := NewRegistry(nil, Definition{Name: "tech_support"})

	got, ok := reg.Get("tech_support")
	require.True(t, ok)
	assert.Equal(t, "tech_support", got.Name())

	_, ok = reg.Get("nope")
	assert.False(t, ok)

	all := reg.All()
	all[0] = nil
	assert.NotNil(t, reg.All()[0], "All must return a copy")
}
