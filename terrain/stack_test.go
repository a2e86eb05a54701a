package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	s := NewStack(func() int { return -1 })
	assert.True(t, s.Empty())
	assert.Equal(t, -1, s.Pop())
	assert.Equal(t, -1, s.Peek())

	for i := 0; i < 4; i++ {
		s.Push(i)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, s.Data())
	assert.Equal(t, 3, s.Peek())
	assert.Equal(t, 3, s.Pop())
	assert.Equal(t, 2, s.Pop())
	assert.Equal(t, 2, s.Len())

	s.Clear()
	assert.True(t, s.Empty())
	assert.Equal(t, -1, s.Pop())
}
