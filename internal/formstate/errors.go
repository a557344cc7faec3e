package formstate

import "errors"

var (
	ErrNoForm         = errors.New("no form loaded")
	ErrInvalidIndex   = errors.New("sheet or section index out of range")
	ErrStepOutOfRange = errors.New("wizard step out of range")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateID    = errors.New("duplicate id")
)
