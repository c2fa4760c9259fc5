package console

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsync(t *testing.T) {
	var a Async[int]
	assert.Equal(t, Idle, a.Phase())
	_, ok := a.Value()
	assert.False(t, ok)

	a = a.Start()
	assert.True(t, a.Loading())

	a = a.Succeed(1)
	assert.Equal(t, Loaded, a.Phase())

	a = a.Start()
	v, ok := a.Value()
	assert.True(t, ok, "value survives a reload")
	assert.Equal(t, 1, v)

	boom := errors.New("boom")
	a = a.Fail(boom)
	assert.Equal(t, Failed, a.Phase())
	assert.Equal(t, boom, a.Err())
	v, _ = a.Value()
	assert.Equal(t, 1, v)

	a = a.Start()
	assert.NoError(t, a.Err())
	assert.Equal(t, "loading", a.Phase().String())
}

func TestCycle(t *testing.T) {
	options := []string{"a", "b", "c"}

	assert.Equal(t, "b", cycle(options, "a", 1))
	assert.Equal(t, "a", cycle(options, "c", 1))
	assert.Equal(t, "c", cycle(options, "a", -1))
	assert.Equal(t, "b", cycle(options, "unknown", 1))
}
