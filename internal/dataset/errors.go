package dataset

import (
	"errors"
	"fmt"
)

// ErrStructural marks a dataset whose layout does not support the requested
// operation. Match with errors.Is.
var ErrStructural = errors.New("invalid dataset structure")

// ErrSourceNotFound marks a missing on-disk source file. Match with errors.Is.
var ErrSourceNotFound = errors.New("source file not found")

// StructuralError reports which operation rejected the dataset and why.
type StructuralError struct {
	Op     string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrStructural, e.Reason)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// Structural builds a StructuralError with a formatted reason.
func Structural(op, format string, args ...any) error {
	return &StructuralError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// SourceNotFoundError carries the path that was looked up.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSourceNotFound, e.Path)
}

func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }
