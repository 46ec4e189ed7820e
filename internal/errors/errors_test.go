package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("disk full")
	err := New(base).
		Component("media").
		Category(CategoryFileIO).
		Context("operation", "write-clip").
		Build()

	assert.Equal(t, "disk full", err.Error())
	assert.Equal(t, "media", err.Component)
	assert.Equal(t, CategoryFileIO, err.Category)
	assert.Equal(t, "write-clip", err.GetContext()["operation"])
	assert.True(t, Is(err, base), "wrapped error stays in the chain")
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("plain %s", "failure").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Equal(t, "plain failure", err.Error())
}

func TestIsMatchesSentinelThroughEnhancement(t *testing.T) {
	t.Parallel()

	err := New(Join(ErrUnsupportedMedia, fmt.Errorf("codec weirdness"))).
		Component("media").
		Category(CategoryMedia).
		Build()

	assert.True(t, Is(err, ErrUnsupportedMedia))
	assert.False(t, Is(err, ErrEmptyMedia))
}

func TestEnhancedErrorsMatchOnCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryDatabase).Build()
	b := Newf("b").Category(CategoryDatabase).Build()
	c := Newf("c").Category(CategoryTimeout).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("key", "value").Build()
	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["key"] = "mutated"
	assert.Equal(t, "value", err.GetContext()["key"])
}
