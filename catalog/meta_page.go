package catalog

import (
	"encoding/binary"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/storage/page"
	"github.com/ryogrid/minisql/storage/table/schema"
)

const (
	catalogMagic = uint32(0x43415431) // "CAT1"
	tableMagic   = uint32(0x5442314d) // "TB1M"
	indexMagic   = uint32(0x4958314d) // "IX1M"
)

// catalogEntry pairs an object id with the page its metadata lives on.
type catalogEntry struct {
	id     uint32
	pageID uint32
}

// catalogMeta is the decoded form of the fixed catalog meta page:
//
//	u32 CATALOG_MAGIC, u32 n_tables, u32 n_indexes,
//	(u32 table_id, u32 page_id) x n_tables,
//	(u32 index_id, u32 page_id) x n_indexes
type catalogMeta struct {
	tables  []catalogEntry
	indexes []catalogEntry
}

func writeCatalogMeta(p *page.Page, meta catalogMeta) {
	buf := make([]byte, common.PageSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], catalogMagic)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(meta.tables)))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(meta.indexes)))
	off += 4
	for _, e := range meta.tables {
		binary.LittleEndian.PutUint32(buf[off:], e.id)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], e.pageID)
		off += 4
	}
	for _, e := range meta.indexes {
		binary.LittleEndian.PutUint32(buf[off:], e.id)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], e.pageID)
		off += 4
	}
	p.Copy(0, buf)
}

// readCatalogMeta decodes the catalog meta page. A page whose magic
// doesn't match yet (a brand-new, all-zero page) reads as an empty
// catalog rather than asserting; NewCatalog writes the header itself
// before any object is created.
func readCatalogMeta(p *page.Page) catalogMeta {
	data := p.Data()
	magic := binary.LittleEndian.Uint32(data[0:])
	if magic != catalogMagic {
		return catalogMeta{}
	}
	nTables := binary.LittleEndian.Uint32(data[4:])
	nIndexes := binary.LittleEndian.Uint32(data[8:])
	off := uint32(12)
	meta := catalogMeta{
		tables:  make([]catalogEntry, 0, nTables),
		indexes: make([]catalogEntry, 0, nIndexes),
	}
	for i := uint32(0); i < nTables; i++ {
		meta.tables = append(meta.tables, catalogEntry{
			id:     binary.LittleEndian.Uint32(data[off:]),
			pageID: binary.LittleEndian.Uint32(data[off+4:]),
		})
		off += 8
	}
	for i := uint32(0); i < nIndexes; i++ {
		meta.indexes = append(meta.indexes, catalogEntry{
			id:     binary.LittleEndian.Uint32(data[off:]),
			pageID: binary.LittleEndian.Uint32(data[off+4:]),
		})
		off += 8
	}
	return meta
}

// writeTableMeta renders a table's per-object metadata page:
//
//	u32 TABLE_MAGIC, u32 table_id, u32 name_len, bytes name,
//	u32 first_page_id, schema…
func writeTableMeta(p *page.Page, tableID uint32, name string, firstPageID uint32, s *schema.Schema) {
	nameBytes := []byte(name)
	buf := make([]byte, common.PageSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], tableMagic)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], tableID)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(nameBytes)))
	off += 4
	copy(buf[off:], nameBytes)
	off += len(nameBytes)
	binary.LittleEndian.PutUint32(buf[off:], firstPageID)
	off += 4
	copy(buf[off:], s.Serialize())
	p.Copy(0, buf)
}

func readTableMeta(p *page.Page) (tableID uint32, name string, firstPageID uint32, s *schema.Schema) {
	data := p.Data()
	common.SHAssertf(binary.LittleEndian.Uint32(data[0:]) == tableMagic, "table meta page: bad magic")
	off := uint32(4)
	tableID = binary.LittleEndian.Uint32(data[off:])
	off += 4
	nameLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	name = string(data[off : off+nameLen])
	off += nameLen
	firstPageID = binary.LittleEndian.Uint32(data[off:])
	off += 4
	s, _ = schema.Deserialize(data[off:])
	return tableID, name, firstPageID, s
}

// writeIndexMeta renders an index's per-object metadata page:
//
//	u32 INDEX_MAGIC, u32 index_id, u32 name_len, bytes name,
//	u32 table_id, u32 key_count, u32[key_count] column_indices
func writeIndexMeta(p *page.Page, indexID uint32, name string, tableID uint32, columnIndices []uint32) {
	nameBytes := []byte(name)
	buf := make([]byte, common.PageSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], indexMagic)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], indexID)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(nameBytes)))
	off += 4
	copy(buf[off:], nameBytes)
	off += len(nameBytes)
	binary.LittleEndian.PutUint32(buf[off:], tableID)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(columnIndices)))
	off += 4
	for _, ci := range columnIndices {
		binary.LittleEndian.PutUint32(buf[off:], ci)
		off += 4
	}
	p.Copy(0, buf)
}

func readIndexMeta(p *page.Page) (indexID uint32, name string, tableID uint32, columnIndices []uint32) {
	data := p.Data()
	common.SHAssertf(binary.LittleEndian.Uint32(data[0:]) == indexMagic, "index meta page: bad magic")
	off := uint32(4)
	indexID = binary.LittleEndian.Uint32(data[off:])
	off += 4
	nameLen := binary.LittleEndian.Uint32(data[off:])
	off += 4
	name = string(data[off : off+nameLen])
	off += nameLen
	tableID = binary.LittleEndian.Uint32(data[off:])
	off += 4
	keyCount := binary.LittleEndian.Uint32(data[off:])
	off += 4
	columnIndices = make([]uint32, keyCount)
	for i := uint32(0); i < keyCount; i++ {
		columnIndices[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}
	return indexID, name, tableID, columnIndices
}
