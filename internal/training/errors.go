package training

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumns is matched by MissingColumnsError via errors.Is.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrEmptyDataset is returned when no usable rows remain.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInsufficientRows is returned when a split would leave a partition empty.
	ErrInsufficientRows = errors.New("insufficient rows")
)

// MissingColumnsError lists the required columns absent from a dataset.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) true.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}
