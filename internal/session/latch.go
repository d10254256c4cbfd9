package session

import (
	"diag-parser/pkg/types"
)

// FrameLatch records the frame number of a first occurrence. Only the first
// Set takes effect; an unknown frame number (0) is stored as types.MaxFN so
// the latch still reads as set.
type FrameLatch uint32

// Set stores fn if the latch is still empty and reports whether it did.
func (l *FrameLatch) Set(fn uint32) bool {
	if *l != 0 {
		return false
	}
	*l = FrameLatch(KnownFN(fn))
	return true
}

// IsSet reports whether a frame number has been latched.
func (l FrameLatch) IsSet() bool {
	return l != 0
}

// Value returns the latched frame number, 0 if unset.
func (l FrameLatch) Value() uint32 {
	return uint32(l)
}

// KnownFN substitutes types.MaxFN for an unknown frame number.
func KnownFN(fn uint32) uint32 {
	if fn == 0 {
		return types.MaxFN
	}
	return fn
}
