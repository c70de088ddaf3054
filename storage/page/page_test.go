// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/types"
)

func TestNewPage(t *testing.T) {
	data := [PageSize]byte{}
	p := New(types.PageID(0), 1, false, &data)

	assert.Equal(t, types.PageID(0), p.ID())
	assert.Equal(t, 1, p.PinCount())
	p.IncPinCount()
	assert.Equal(t, 2, p.PinCount())
	p.DecPinCount()
	p.DecPinCount()
	assert.Equal(t, 0, p.PinCount())
	assert.False(t, p.IsDirty())
	p.SetIsDirty(true)
	assert.True(t, p.IsDirty())
	assert.Equal(t, types.InvalidLSN, p.LSN())
	p.SetLSN(types.LSN(7))
	assert.Equal(t, types.LSN(7), p.LSN())
}

func TestEmptyPage(t *testing.T) {
	p := NewEmpty(types.PageID(0))

	assert.Equal(t, types.PageID(0), p.ID())
	assert.Equal(t, 1, p.PinCount())
	assert.False(t, p.IsDirty())
	assert.Equal(t, [PageSize]byte{}, *p.Data())
}
