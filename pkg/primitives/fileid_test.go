package primitives

import "testing"

func TestFileID_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		fileID   FileID
		expected bool
	}{
		{"negative FileID is invalid", InvalidFileID, false},
		{"zero FileID is valid", FileID(0), true},
		{"positive FileID is valid", FileID(12345), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fileID.IsValid(); got != tt.expected {
				t.Errorf("expected IsValid=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFileID_String(t *testing.T) {
	if got, want := FileID(12345).String(), "FileID(12345)"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTableID_IndexID_RoundTrip(t *testing.T) {
	f := FileID(42)
	tid := TableID(f)
	if tid.ToFileID() != f {
		t.Errorf("TableID -> FileID round trip failed")
	}
	if !tid.IsValid() {
		t.Errorf("expected valid TableID")
	}

	iid := IndexID(f)
	if iid.ToFileID() != f {
		t.Errorf("IndexID -> FileID round trip failed")
	}
	if !iid.IsValid() {
		t.Errorf("expected valid IndexID")
	}
}

func TestRID_IsValid(t *testing.T) {
	if (RID{Page: InvalidPageNumber, Slot: 0}).IsValid() {
		t.Errorf("RID with invalid page should not be valid")
	}
	if !(RID{Page: 3, Slot: 1}).IsValid() {
		t.Errorf("RID with a real page should be valid")
	}
}
