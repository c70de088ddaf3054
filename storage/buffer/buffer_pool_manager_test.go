package buffer

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/minisql/storage/disk"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/types"
)

func TestBinaryData(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0 := bpm.NewPage()
	assert.NotNil(t, page0)
	firstID := page0.ID()

	randomBinaryData := make([]byte, page.PageSize)
	rand.Read(randomBinaryData)

	randomBinaryData[page.PageSize/2] = '0'
	randomBinaryData[page.PageSize-1] = '0'

	var fixedRandomBinaryData [page.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData[:page.PageSize])

	page0.Copy(0, randomBinaryData)
	assert.Equal(t, fixedRandomBinaryData, *page0.Data())

	allocated := []types.PageID{firstID}
	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		assert.NotNil(t, p)
		allocated = append(allocated, p.ID())
	}

	// Once the buffer pool is full, we should not be able to create any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		assert.Nil(t, bpm.NewPage())
	}

	for i := 0; i < 5; i++ {
		assert.NoError(t, bpm.UnpinPage(allocated[i], true))
		bpm.FlushPage(allocated[i])
	}
	for i := 0; i < 4; i++ {
		p := bpm.NewPage()
		bpm.UnpinPage(p.ID(), false)
	}

	page0 = bpm.FetchPage(firstID)
	assert.Equal(t, fixedRandomBinaryData, *page0.Data())
	assert.NoError(t, bpm.UnpinPage(firstID, true))
}

func TestSample(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0 := bpm.NewPage()
	firstID := page0.ID()

	page0.Copy(0, []byte("Hello"))
	assert.Equal(t, [page.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

	allocated := []types.PageID{firstID}
	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		allocated = append(allocated, p.ID())
	}

	for i := poolSize; i < poolSize*2; i++ {
		assert.Nil(t, bpm.NewPage())
	}

	for i := 0; i < 5; i++ {
		assert.NoError(t, bpm.UnpinPage(allocated[i], true))
		bpm.FlushPage(allocated[i])
	}
	for i := 0; i < 4; i++ {
		bpm.NewPage()
	}

	page0 = bpm.FetchPage(firstID)
	assert.Equal(t, [page.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

	assert.NoError(t, bpm.UnpinPage(firstID, true))

	p := bpm.NewPage()
	assert.NotNil(t, p)
	assert.Nil(t, bpm.NewPage())
	assert.Nil(t, bpm.FetchPage(firstID))
}
