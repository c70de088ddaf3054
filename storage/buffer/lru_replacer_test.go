package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUReplacer(t *testing.T) {
	lru := NewLRUReplacer(7)

	lru.Unpin(1)
	lru.Unpin(2)
	lru.Unpin(3)
	lru.Unpin(4)
	lru.Unpin(5)
	lru.Unpin(6)
	lru.Unpin(1)
	assert.Equal(t, uint32(6), lru.Size())

	id, ok := lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(1), id)
	id, ok = lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(2), id)
	id, ok = lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(3), id)

	lru.Pin(3)
	lru.Pin(4)
	assert.Equal(t, uint32(2), lru.Size())

	lru.Unpin(4)

	id, ok = lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(5), id)
	id, ok = lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(6), id)
	id, ok = lru.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(4), id)

	_, ok = lru.Victim()
	assert.False(t, ok)
}
