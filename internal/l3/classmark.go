package l3

import (
	"diag-parser/internal/session"
)

// Classmark revisions understood by ApplyClassmark.
const (
	Classmark1 = 1
	Classmark2 = 2
)

// ApplyClassmark folds the ciphering capabilities of a Mobile Station
// Classmark 1 or 2 value (TS 24.008 10.5.1.5/10.5.1.6, length octet
// excluded) into the session's cipher mask. Capabilities accumulate: bits
// are only ever set. It reports false if ie is too short for rev.
func ApplyClassmark(s *session.Info, ie []byte, rev int) bool {
	need := 1
	if rev == Classmark2 {
		need = 3
	}
	if len(ie) < need {
		return false
	}

	// "A5/1 algorithm not available" is encoded as 1
	if ie[0]&0x08 == 0 {
		s.CipherMask |= 0x01
	}

	if rev == Classmark2 {
		s.CipherMask |= (ie[2] & 0x01) << 1 // A5/2
		s.CipherMask |= (ie[2] & 0x02) << 1 // A5/3
	}
	return true
}
