package prt

import "errors"

var (
	// ErrUnexpectedEOF means the buffer ran out mid-read.
	ErrUnexpectedEOF = errors.New("prt: unexpected end of data")
	// ErrInvalidContainer means a bad magic tag or header.
	ErrInvalidContainer = errors.New("prt: invalid container")
	// ErrTruncatedPalette means the palette table needs more bytes than remain.
	ErrTruncatedPalette = errors.New("prt: truncated palette")
	// ErrMalformedAnimation means a declared animation count or length
	// runs past the remaining buffer, or the block totals do not add up.
	ErrMalformedAnimation = errors.New("prt: malformed animation record")
	// ErrInconsistentModel means an edited model carries a dangling
	// palette or bitmap reference and cannot be assembled.
	ErrInconsistentModel = errors.New("prt: inconsistent model")
)
