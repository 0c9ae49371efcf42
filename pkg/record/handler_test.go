package record

import (
	"bytes"
	"path/filepath"
	"testing"

	"storemy/pkg/bufferpool"
	dberr "storemy/pkg/error"
)

func openHandler(t *testing.T, recordSize int) *Handler {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dat")

	bp := bufferpool.New(16, 4)
	if err := bp.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	id, err := bp.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return NewHandler(bp, id, recordSize)
}

func TestInsertGetDelete_RoundTrip(t *testing.T) {
	h := openHandler(t, 8)

	rid, err := h.InsertRecord([]byte("abcdefgh"))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	got, err := h.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !bytes.Equal(got, []byte("abcdefgh")) {
		t.Errorf("expected abcdefgh, got %q", got)
	}

	if err := h.DeleteRecord(rid); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := h.GetRecord(rid); !dberr.HasCode(err, dberr.CodeRecordInvalidKey) {
		t.Fatalf("expected RECORD_INVALID_KEY after delete, got %v", err)
	}
}

func TestInsertRecord_SpansMultiplePages(t *testing.T) {
	h := openHandler(t, 64)
	n := h.slots*3 + 1 // force at least 3 pages of records

	rids := make([]struct {
		page int
	}, 0, n)
	for i := 0; i < n; i++ {
		data := bytes.Repeat([]byte{byte(i)}, 64)
		rid, err := h.InsertRecord(data)
		if err != nil {
			t.Fatalf("InsertRecord #%d: %v", i, err)
		}
		rids = append(rids, struct{ page int }{int(rid.Page)})
	}

	seenPages := map[int]bool{}
	for _, r := range rids {
		seenPages[r.page] = true
	}
	if len(seenPages) < 3 {
		t.Errorf("expected records to span at least 3 pages, saw %d", len(seenPages))
	}
}

func TestInsertRecord_WrongSize(t *testing.T) {
	h := openHandler(t, 8)
	_, err := h.InsertRecord([]byte("short"))
	if !dberr.HasCode(err, dberr.CodeInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestScanner_YieldsAllLiveRecordsInOrder(t *testing.T) {
	h := openHandler(t, 4)
	values := [][]byte{[]byte("aaaa"), []byte("bbbb"), []byte("cccc")}
	for _, v := range values {
		if _, err := h.InsertRecord(v); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	scan, err := h.OpenScan(nil)
	if err != nil {
		t.Fatalf("OpenScan: %v", err)
	}
	defer scan.CloseScan()

	var got [][]byte
	for {
		_, data, err := scan.GetNextRecord()
		if dberr.HasCode(err, dberr.CodeRecordEOF) {
			break
		}
		if err != nil {
			t.Fatalf("GetNextRecord: %v", err)
		}
		got = append(got, data)
	}

	if len(got) != len(values) {
		t.Fatalf("expected %d records, got %d", len(values), len(got))
	}
	for i, v := range values {
		if !bytes.Equal(got[i], v) {
			t.Errorf("record %d: expected %q, got %q", i, v, got[i])
		}
	}
}

func TestScanner_AppliesFilter(t *testing.T) {
	h := openHandler(t, 4)
	for _, v := range [][]byte{[]byte("aaaa"), []byte("bbbb"), []byte("cccc")} {
		if _, err := h.InsertRecord(v); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	scan, err := h.OpenScan(func(data []byte) (bool, error) {
		return bytes.Equal(data, []byte("bbbb")), nil
	})
	if err != nil {
		t.Fatalf("OpenScan: %v", err)
	}
	defer scan.CloseScan()

	_, data, err := scan.GetNextRecord()
	if err != nil {
		t.Fatalf("GetNextRecord: %v", err)
	}
	if !bytes.Equal(data, []byte("bbbb")) {
		t.Errorf("expected bbbb, got %q", data)
	}

	_, _, err = scan.GetNextRecord()
	if !dberr.HasCode(err, dberr.CodeRecordEOF) {
		t.Fatalf("expected RECORD_EOF after the only match, got %v", err)
	}
}
