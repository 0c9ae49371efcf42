package engine

import (
	"testing"

	dberr "storemy/pkg/error"
	"storemy/pkg/schema"
	"storemy/pkg/table"
	"storemy/pkg/types"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_RejectsEmptyBaseDir(t *testing.T) {
	if _, err := New(DefaultConfig("")); !dberr.HasCode(err, dberr.CodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT for empty base dir, got %v", err)
	}
}

func TestCreateTable_ThenOpenTable_ReturnsSameHandleWhileOpen(t *testing.T) {
	e := newEngine(t)
	fields := []schema.FieldMeta{{Name: "id", Type: types.IntType, Length: 4}}

	created, err := e.CreateTable("widgets", fields)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	got, err := e.OpenTable("widgets")
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	if got != created {
		t.Errorf("expected OpenTable to return the already-registered handle")
	}
}

func TestCreateTable_RejectsDuplicate(t *testing.T) {
	e := newEngine(t)
	fields := []schema.FieldMeta{{Name: "id", Type: types.IntType, Length: 4}}
	if _, err := e.CreateTable("widgets", fields); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := e.CreateTable("widgets", fields); !dberr.HasCode(err, dberr.CodeSchemaTableExist) {
		t.Fatalf("expected SCHEMA_TABLE_EXIST, got %v", err)
	}
}

func TestOpenTables_OpensEveryTableConcurrently(t *testing.T) {
	e := newEngine(t)
	fields := []schema.FieldMeta{{Name: "id", Type: types.IntType, Length: 4}}
	names := []string{"a", "b", "c"}
	for _, name := range names {
		if _, err := e.CreateTable(name, fields); err != nil {
			t.Fatalf("CreateTable(%s): %v", name, err)
		}
	}

	// Drop them from the registry so OpenTables has to actually reopen,
	// not just return the cached handle.
	e.mu.Lock()
	e.tables = make(map[string]*table.Table)
	e.mu.Unlock()

	tables, err := e.OpenTables(names)
	if err != nil {
		t.Fatalf("OpenTables: %v", err)
	}
	if len(tables) != len(names) {
		t.Fatalf("expected %d tables, got %d", len(names), len(tables))
	}
	for i, tbl := range tables {
		if tbl == nil {
			t.Errorf("table %d (%s) is nil", i, names[i])
		} else if tbl.Name() != names[i] {
			t.Errorf("table %d: expected name %s, got %s", i, names[i], tbl.Name())
		}
	}
}

func TestTable_ReportsNotFoundForUnregistered(t *testing.T) {
	e := newEngine(t)
	if _, ok := e.Table("ghost"); ok {
		t.Error("expected no table registered under an unused name")
	}
}

func TestPaths_RouteThroughBaseDir(t *testing.T) {
	e := newEngine(t)
	paths := e.Paths()
	if paths.BaseDir != e.cfg.BaseDir {
		t.Errorf("expected Paths.BaseDir to match engine's base dir")
	}
}
