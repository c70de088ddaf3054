package page

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/types"
)

func TestRID(t *testing.T) {
	rid := RID{}
	rid.Set(types.PageID(0), uint32(3))
	assert.Equal(t, types.PageID(0), rid.GetPageId())
	assert.Equal(t, uint32(3), rid.GetSlot())
}
