// errors.go - Sentinel errors shared across the package
package gofilegdb

import "errors"

var (
	// ErrBadHeader marks an unreadable or inconsistent table header.
	ErrBadHeader = errors.New("invalid table header")

	// ErrUnsupportedVersion marks a table version other than 3 or 4.
	ErrUnsupportedVersion = errors.New("unsupported table version")

	// ErrBadOffsetIndex marks a malformed offset index file.
	ErrBadOffsetIndex = errors.New("invalid offset index")

	// ErrBadRow marks a row blob that fails sanity checks.
	ErrBadRow = errors.New("invalid row")

	// ErrNoCurrentRow is returned by field access before a SelectRow.
	ErrNoCurrentRow = errors.New("no row selected")

	// ErrFieldIndex is returned for an out-of-range field index.
	ErrFieldIndex = errors.New("field index out of range")

	// ErrRowIndex is returned for an out-of-range row index.
	ErrRowIndex = errors.New("row index out of range")

	// ErrBadIndexFile marks a malformed index catalog file.
	ErrBadIndexFile = errors.New("invalid index catalog")
)
