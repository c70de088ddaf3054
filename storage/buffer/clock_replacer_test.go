package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockReplacer(t *testing.T) {
	clockReplacer := NewClockReplacer(7)

	// Scenario: unpin six elements, i.e. add them to the replacer.
	clockReplacer.Unpin(1)
	clockReplacer.Unpin(2)
	clockReplacer.Unpin(3)
	clockReplacer.Unpin(4)
	clockReplacer.Unpin(5)
	clockReplacer.Unpin(6)
	clockReplacer.Unpin(1)
	assert.Equal(t, uint32(6), clockReplacer.Size())

	// Scenario: get three victims from the clock.
	id, ok := clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(1), id)
	id, ok = clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(2), id)
	id, ok = clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(3), id)

	// Scenario: pin elements in the replacer.
	// Note that 3 has already been victimized, so pinning 3 should have no effect.
	clockReplacer.Pin(3)
	clockReplacer.Pin(4)
	assert.Equal(t, uint32(2), clockReplacer.Size())

	// Scenario: unpin 4. We expect that the reference bit of 4 will be set to 1.
	clockReplacer.Unpin(4)

	// Scenario: continue looking for victims. We expect these victims.
	id, ok = clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(5), id)
	id, ok = clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(6), id)
	id, ok = clockReplacer.Victim()
	assert.True(t, ok)
	assert.Equal(t, FrameID(4), id)
}
