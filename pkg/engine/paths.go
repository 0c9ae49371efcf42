package engine

import "storemy/pkg/table"

// Paths builds the three on-disk file paths a table owns, rooted at one
// base directory, matching the original engine's table_data_file/
// table_meta_file/table_index_file naming.
type Paths struct {
	BaseDir string
}

func (p Paths) DataFile(tableName string) string { return table.DataFilePath(p.BaseDir, tableName) }

func (p Paths) MetaFile(tableName string) string { return table.MetaFilePath(p.BaseDir, tableName) }

func (p Paths) IndexFile(tableName, indexName string) string {
	return table.IndexFilePath(p.BaseDir, tableName, indexName)
}
