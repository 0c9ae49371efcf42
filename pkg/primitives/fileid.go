package primitives

import "fmt"

// String returns a string representation of the FileID.
func (f FileID) String() string {
	return fmt.Sprintf("FileID(%d)", f)
}

func (t TableID) String() string {
	return fmt.Sprintf("TableID(%d)", t)
}

func (i IndexID) String() string {
	return fmt.Sprintf("IndexID(%d)", i)
}
