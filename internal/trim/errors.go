package trim

import "fmt"

// Error reports a failed trim operation on a document.
type Error struct {
	Op    string // "trim lines" or "trim all"
	DocID DocID
	Err   error
}

func (e *Error) Error() string {
	if e.DocID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.DocID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
