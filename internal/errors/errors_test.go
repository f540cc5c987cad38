package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAttachesMetadata(t *testing.T) {
	t.Parallel()

	base := NewStd("socket bind failed")
	err := New(base).
		Component("protocol").
		Category(CategoryNetwork).
		Context("port", 7780).
		Build()

	assert.Equal(t, "socket bind failed", err.Error())
	assert.Equal(t, "protocol", err.GetComponent())
	assert.Equal(t, string(CategoryNetwork), err.GetCategory())
	assert.Equal(t, 7780, err.GetContext()["port"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestUnwrapPreservesChain(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	wrapped := fmt.Errorf("outer: %w", sentinel)
	err := New(wrapped).Category(CategoryCapture).Build()

	assert.True(t, Is(err, sentinel))

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, string(CategoryCapture), ee.GetCategory())
}

func TestIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryTimeout).Build()
	b := Newf("b").Category(CategoryTimeout).Build()
	c := Newf("c").Category(CategoryValidation).Build()

	assert.True(t, Is(a, b), "same category matches")
	assert.False(t, Is(a, c))
}

func TestUnknownComponent(t *testing.T) {
	t.Parallel()

	err := Newf("bare").Build()
	assert.Equal(t, ComponentUnknown, err.GetComponent())
}

func TestTimingContext(t *testing.T) {
	t.Parallel()

	err := Newf("slow").
		Timing("capture", 250*time.Millisecond).
		Build()
	ctx := err.GetContext()
	assert.Equal(t, "capture", ctx["operation"])
	assert.NotNil(t, ctx["duration_ms"])
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
