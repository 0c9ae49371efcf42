// Package schema defines TableMeta, FieldMeta, and IndexMeta, and their
// (de)serialization to a meta file. Updates to a live meta file always go
// through a write-then-rename so a reader never observes a half-written
// file.
package schema

import (
	"encoding/gob"
	"fmt"
	"os"

	"storemy/pkg/types"
)

// FieldMeta describes one fixed-width field's position inside a record.
type FieldMeta struct {
	Name   string
	Type   types.Type
	Offset int
	Length int
}

// IndexMeta names a persistent index over one field.
type IndexMeta struct {
	Name      string
	FieldName string
}

// TableMeta is a table's full schema: its fields (system fields first,
// matching sys_field_count) and its declared indexes.
type TableMeta struct {
	Name          string
	SysFieldCount int
	Fields        []FieldMeta
	Indexes       []IndexMeta
}

// RecordSize is the sum of every field's length: the fixed width of one
// record of this table.
func (m *TableMeta) RecordSize() int {
	size := 0
	for _, f := range m.Fields {
		size += f.Length
	}
	return size
}

// UserFields returns the fields after the system-field prefix.
func (m *TableMeta) UserFields() []FieldMeta {
	return m.Fields[m.SysFieldCount:]
}

func (m *TableMeta) FindField(name string) (*FieldMeta, bool) {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// FindFieldByOffset resolves a field by its byte offset in the record,
// used when a scan only has a condition filter's offset to go on.
func (m *TableMeta) FindFieldByOffset(offset int) (*FieldMeta, bool) {
	for i := range m.Fields {
		if m.Fields[i].Offset == offset {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

func (m *TableMeta) FindIndex(name string) (*IndexMeta, bool) {
	for i := range m.Indexes {
		if m.Indexes[i].Name == name {
			return &m.Indexes[i], true
		}
	}
	return nil, false
}

func (m *TableMeta) FindIndexByField(fieldName string) (*IndexMeta, bool) {
	for i := range m.Indexes {
		if m.Indexes[i].FieldName == fieldName {
			return &m.Indexes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy, used by CreateIndex to build the new meta
// before it is visible anywhere.
func (m *TableMeta) Clone() *TableMeta {
	out := &TableMeta{Name: m.Name, SysFieldCount: m.SysFieldCount}
	out.Fields = append(out.Fields, m.Fields...)
	out.Indexes = append(out.Indexes, m.Indexes...)
	return out
}

// Save writes m to path atomically: encode to path+".tmp", then rename
// over path.
func (m *TableMeta) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("schema: creating %s: %w", tmp, err)
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("schema: encoding %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("schema: closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("schema: renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}

// Load reads a TableMeta previously written by Save.
func Load(path string) (*TableMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: opening %s: %w", path, err)
	}
	defer f.Close()

	var m TableMeta
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("schema: decoding %s: %w", path, err)
	}
	return &m, nil
}
