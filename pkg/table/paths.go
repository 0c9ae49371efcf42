package table

import "path/filepath"

// DataFilePath, MetaFilePath, and IndexFilePath name a table's three kinds
// of on-disk file inside baseDir, mirroring the original engine's
// table_data_file/table_meta_file/table_index_file naming convention.
func DataFilePath(baseDir, name string) string {
	return filepath.Join(baseDir, name+".data")
}

func MetaFilePath(baseDir, name string) string {
	return filepath.Join(baseDir, name+".table")
}

func IndexFilePath(baseDir, tableName, indexName string) string {
	return filepath.Join(baseDir, tableName+"."+indexName+".index")
}
