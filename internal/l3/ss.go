package l3

import (
	"diag-parser/internal/session"
)

// Non-call related SS message types (TS 24.080 3.4).
const (
	ssReleaseComplete uint8 = 0x2a
	ssFacility        uint8 = 0x3a
	ssRegister        uint8 = 0x3b
)

func handleSS(s *session.Info, h Header) Event {
	if !h.Complete() {
		return sanity("SS_LEN")
	}

	s.SSA = true

	switch mt := h.MessageType & MsgTypeMask; mt {
	case ssReleaseComplete:
		return labelf("SS RELEASE COMPLETE")
	case ssFacility:
		return labelf("SS FACILITY")
	case ssRegister:
		return labelf("SS REGISTER")
	default:
		return unknown(s, "SS", mt)
	}
}
