package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/types"
)

func TestReadWritePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	page0 := dm.AllocatePage()
	dm.ReadPage(page0, buffer) // tolerate empty read
	dm.WritePage(page0, data)
	dm.ReadPage(page0, buffer)
	assert.Equal(t, data, buffer)

	memset(buffer)
	copy(data, "Another test string.")

	page1 := dm.AllocatePage()
	dm.WritePage(page1, data)
	dm.ReadPage(page1, buffer)
	assert.Equal(t, data, buffer)
}

func TestAllocateDeallocateReuse(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	first := dm.AllocatePage()
	second := dm.AllocatePage()
	assert.NotEqual(t, first, second)

	dm.DeallocatePage(first)
	third := dm.AllocatePage()
	assert.Equal(t, first, third, "a deallocated page's slot should be reused by the next allocation")
}

func TestAllocateGrowsPastOneExtent(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	seen := make(map[types.PageID]bool)
	for i := 0; i < common.BitmapCapacity+5; i++ {
		id := dm.AllocatePage()
		assert.False(t, seen[id], "allocator handed out the same page id twice")
		seen[id] = true
	}
}

func memset(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
}
