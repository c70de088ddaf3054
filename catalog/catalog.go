package catalog

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryogrid/minisql/common"
	"github.com/ryogrid/minisql/recovery"
	"github.com/ryogrid/minisql/storage/buffer"
	"github.com/ryogrid/minisql/storage/index"
	"github.com/ryogrid/minisql/storage/table/heap"
	"github.com/ryogrid/minisql/storage/table/schema"
	"github.com/ryogrid/minisql/types"
)

// Catalog owns every table's and index's metadata, persisted to the
// fixed catalog meta page (common.CatalogMetaPageID) plus one metadata
// page per object. Name mappings are case-sensitive: table names unique
// database-wide, index names unique per table.
type Catalog struct {
	bpm        *buffer.BufferPoolManager
	logManager *recovery.LogManager

	tables      map[uint32]*TableMetadata
	tableMeta   map[uint32]uint32 // table id -> its metadata page id
	tableNames  mapset.Set[string]
	tableByName map[string]uint32
	nextTableID uint32

	indexes     map[uint32]*IndexMetadata
	indexMeta   map[uint32]uint32 // index id -> its metadata page id
	indexNames  map[uint32]mapset.Set[string] // table id -> index names in use
	indexByName map[string]uint32             // "tableID/name" -> index id
	nextIndexID uint32
}

func indexNameKey(tableID uint32, name string) string {
	return strconv.FormatUint(uint64(tableID), 10) + "\x00" + name
}

// NewCatalog bootstraps a brand-new database: it writes the empty
// catalog meta page and initializes the shared index-roots page, both at
// their reserved page ids (which precede the disk manager's bitmap
// allocator, so they're addressed directly rather than allocated).
func NewCatalog(bpm *buffer.BufferPoolManager, logManager *recovery.LogManager) *Catalog {
	c := newEmptyCatalog(bpm, logManager)

	metaPage := bpm.FetchPage(types.PageID(common.CatalogMetaPageID))
	writeCatalogMeta(metaPage, catalogMeta{})
	bpm.UnpinPage(metaPage.ID(), true)

	rootsPage := bpm.FetchPage(types.PageID(common.IndexRootsPageID))
	index.CastPageAsIndexRootsPage(rootsPage).Init()
	bpm.UnpinPage(rootsPage.ID(), true)

	return c
}

// OpenCatalog reloads a catalog previously created by NewCatalog,
// reconstructing every table's heap and every index's tree from their
// persisted metadata pages.
func OpenCatalog(bpm *buffer.BufferPoolManager, logManager *recovery.LogManager) *Catalog {
	c := newEmptyCatalog(bpm, logManager)

	metaPage := bpm.FetchPage(types.PageID(common.CatalogMetaPageID))
	meta := readCatalogMeta(metaPage)
	bpm.UnpinPage(metaPage.ID(), false)

	for _, e := range meta.tables {
		objPage := bpm.FetchPage(types.PageID(e.pageID))
		tableID, name, firstPageID, s := readTableMeta(objPage)
		bpm.UnpinPage(objPage.ID(), false)

		th := heap.OpenTableHeap(bpm, types.PageID(firstPageID), logManager)
		c.tables[tableID] = &TableMetadata{ID: tableID, Name: name, Schema: s, Heap: th}
		c.tableMeta[tableID] = e.pageID
		c.tableNames.Add(name)
		c.tableByName[name] = tableID
		if tableID >= c.nextTableID {
			c.nextTableID = tableID + 1
		}
	}

	for _, e := range meta.indexes {
		objPage := bpm.FetchPage(types.PageID(e.pageID))
		indexID, name, tableID, columnIndices := readIndexMeta(objPage)
		bpm.UnpinPage(objPage.ID(), false)

		table := c.tables[tableID]
		keySchema := schema.CopySchema(table.Schema, columnIndices)
		keySize := index.RoundKeySize(index.NaturalKeySize(keySchema))
		tree := index.NewBPlusTree(bpm, indexID, keySize, index.NewComparator(keySchema))

		im := &IndexMetadata{ID: indexID, Name: name, TableID: tableID, ColumnIndex: columnIndices, KeySchema: keySchema, KeySize: keySize, Tree: tree}
		c.indexes[indexID] = im
		c.indexMeta[indexID] = e.pageID
		if c.indexNames[tableID] == nil {
			c.indexNames[tableID] = mapset.NewSet[string]()
		}
		c.indexNames[tableID].Add(name)
		c.indexByName[indexNameKey(tableID, name)] = indexID
		if indexID >= c.nextIndexID {
			c.nextIndexID = indexID + 1
		}
	}

	return c
}

func newEmptyCatalog(bpm *buffer.BufferPoolManager, logManager *recovery.LogManager) *Catalog {
	return &Catalog{
		bpm:         bpm,
		logManager:  logManager,
		tables:      make(map[uint32]*TableMetadata),
		tableMeta:   make(map[uint32]uint32),
		tableNames:  mapset.NewSet[string](),
		tableByName: make(map[string]uint32),
		indexes:     make(map[uint32]*IndexMetadata),
		indexMeta:   make(map[uint32]uint32),
		indexNames:  make(map[uint32]mapset.Set[string]),
		indexByName: make(map[string]uint32),
	}
}

// CreateTable allocates a table id, deep-copies schema_, creates an empty
// heap, persists table metadata, and registers the mapping. Always
// returns a code, per the fixed "CreateTable does not return after
// success" bug in the source this was distilled from.
func (c *Catalog) CreateTable(name string, schema_ *schema.Schema) (*TableMetadata, common.DBCode) {
	if c.tableNames.Contains(name) {
		return nil, common.DBTableAlreadyExist
	}

	tableID := c.nextTableID
	c.nextTableID++

	cloned := schema.CopySchema(schema_, allColumnIndices(schema_))
	th := heap.NewTableHeap(c.bpm, c.logManager)

	tm := &TableMetadata{ID: tableID, Name: name, Schema: cloned, Heap: th}
	c.tables[tableID] = tm
	c.tableNames.Add(name)
	c.tableByName[name] = tableID

	objPage := c.bpm.NewPage()
	writeTableMeta(objPage, tableID, name, uint32(th.GetFirstPageID()), cloned)
	c.bpm.UnpinPage(objPage.ID(), true)
	c.bpm.FlushPage(objPage.ID())
	c.tableMeta[tableID] = uint32(objPage.ID())

	c.FlushMeta()
	return tm, common.DBSuccess
}

func allColumnIndices(s *schema.Schema) []uint32 {
	idx := make([]uint32, s.GetColumnCount())
	for i := range idx {
		idx[i] = uint32(i)
	}
	return idx
}

// DropTable walks the heap page chain deallocating every page, removes
// the table's metadata, and re-serializes the catalog.
func (c *Catalog) DropTable(name string) common.DBCode {
	tableID, ok := c.tableByName[name]
	if !ok {
		return common.DBTableNotExist
	}

	tm := c.tables[tableID]
	tm.Heap.DropHeap()

	metaPageID := c.tableMeta[tableID]
	_ = c.bpm.DeletePage(types.PageID(metaPageID))

	delete(c.tables, tableID)
	delete(c.tableMeta, tableID)
	c.tableNames.Remove(name)
	delete(c.tableByName, name)

	c.FlushMeta()
	return common.DBSuccess
}

// CreateIndex resolves keyCols against table's schema, allocates an
// index id, and materializes a tree whose root is allocated lazily on
// first insert (the roots page simply has no entry for this index id
// until then).
func (c *Catalog) CreateIndex(tableName, indexName string, keyCols []string) (*IndexMetadata, common.DBCode) {
	tableID, ok := c.tableByName[tableName]
	if !ok {
		return nil, common.DBTableNotExist
	}
	table := c.tables[tableID]

	if c.indexNames[tableID] != nil && c.indexNames[tableID].Contains(indexName) {
		return nil, common.DBIndexAlreadyExist
	}

	columnIndices := make([]uint32, 0, len(keyCols))
	for _, col := range keyCols {
		idx := table.Schema.GetColIndex(col)
		if idx == ^uint32(0) {
			return nil, common.DBColumnNameNotExist
		}
		columnIndices = append(columnIndices, idx)
	}

	indexID := c.nextIndexID
	c.nextIndexID++

	keySchema := schema.CopySchema(table.Schema, columnIndices)
	keySize := index.RoundKeySize(index.NaturalKeySize(keySchema))
	if keySize == 0 {
		return nil, common.DBFailed
	}
	tree := index.NewBPlusTree(c.bpm, indexID, keySize, index.NewComparator(keySchema))

	im := &IndexMetadata{ID: indexID, Name: indexName, TableID: tableID, ColumnIndex: columnIndices, KeySchema: keySchema, KeySize: keySize, Tree: tree}
	c.indexes[indexID] = im
	if c.indexNames[tableID] == nil {
		c.indexNames[tableID] = mapset.NewSet[string]()
	}
	c.indexNames[tableID].Add(indexName)
	c.indexByName[indexNameKey(tableID, indexName)] = indexID

	objPage := c.bpm.NewPage()
	writeIndexMeta(objPage, indexID, indexName, tableID, columnIndices)
	c.bpm.UnpinPage(objPage.ID(), true)
	c.bpm.FlushPage(objPage.ID())
	c.indexMeta[indexID] = uint32(objPage.ID())

	c.FlushMeta()
	return im, common.DBSuccess
}

// DropIndex removes an index's metadata and destroys its B+ tree: every
// page belonging to the tree is deleted and its entry in the shared
// index-roots page is removed, so nothing is left dangling once the
// index's metadata page is gone.
func (c *Catalog) DropIndex(tableName, indexName string) common.DBCode {
	tableID, ok := c.tableByName[tableName]
	if !ok {
		return common.DBTableNotExist
	}
	indexID, ok := c.indexByName[indexNameKey(tableID, indexName)]
	if !ok {
		return common.DBIndexNotFound
	}

	c.indexes[indexID].Tree.Destroy()

	metaPageID := c.indexMeta[indexID]
	_ = c.bpm.DeletePage(types.PageID(metaPageID))

	delete(c.indexes, indexID)
	delete(c.indexMeta, indexID)
	c.indexNames[tableID].Remove(indexName)
	delete(c.indexByName, indexNameKey(tableID, indexName))

	c.FlushMeta()
	return common.DBSuccess
}

func (c *Catalog) GetTable(name string) (*TableMetadata, common.DBCode) {
	tableID, ok := c.tableByName[name]
	if !ok {
		return nil, common.DBTableNotExist
	}
	return c.tables[tableID], common.DBSuccess
}

func (c *Catalog) GetIndex(tableName, indexName string) (*IndexMetadata, common.DBCode) {
	tableID, ok := c.tableByName[tableName]
	if !ok {
		return nil, common.DBTableNotExist
	}
	indexID, ok := c.indexByName[indexNameKey(tableID, indexName)]
	if !ok {
		return nil, common.DBIndexNotFound
	}
	return c.indexes[indexID], common.DBSuccess
}

func (c *Catalog) GetTables() []*TableMetadata {
	out := make([]*TableMetadata, 0, len(c.tables))
	for _, tm := range c.tables {
		out = append(out, tm)
	}
	return out
}

func (c *Catalog) GetTableIndexes(tableName string) ([]*IndexMetadata, common.DBCode) {
	tableID, ok := c.tableByName[tableName]
	if !ok {
		return nil, common.DBTableNotExist
	}
	out := make([]*IndexMetadata, 0)
	for _, im := range c.indexes {
		if im.TableID == tableID {
			out = append(out, im)
		}
	}
	return out, common.DBSuccess
}

// FlushMeta persists the catalog meta page so a mid-operation crash
// leaves either the old or new object set visible, never an intermediate
// one.
func (c *Catalog) FlushMeta() {
	meta := catalogMeta{
		tables:  make([]catalogEntry, 0, len(c.tableMeta)),
		indexes: make([]catalogEntry, 0, len(c.indexMeta)),
	}
	for id, pageID := range c.tableMeta {
		meta.tables = append(meta.tables, catalogEntry{id: id, pageID: pageID})
	}
	for id, pageID := range c.indexMeta {
		meta.indexes = append(meta.indexes, catalogEntry{id: id, pageID: pageID})
	}

	metaPage := c.bpm.FetchPage(types.PageID(common.CatalogMetaPageID))
	writeCatalogMeta(metaPage, meta)
	c.bpm.UnpinPage(metaPage.ID(), true)
	c.bpm.FlushPage(types.PageID(common.CatalogMetaPageID))
}
