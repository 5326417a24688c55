package linalg

import "errors"

var (
	// ErrShapeMismatch is wrapped by every panic raised when operand sizes disagree.
	ErrShapeMismatch = errors.New("linalg: shape mismatch")

	// ErrIndexOutOfRange is wrapped by every panic raised by an out-of-bounds access.
	ErrIndexOutOfRange = errors.New("linalg: index out of range")
)
