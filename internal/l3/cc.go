package l3

import (
	"diag-parser/internal/session"
)

// Call control message types (TS 24.008 10.4).
const (
	ccAlerting        uint8 = 0x01
	ccCallProceeding  uint8 = 0x02
	ccProgress        uint8 = 0x03
	ccSetup           uint8 = 0x05
	ccConnect         uint8 = 0x07
	ccCallConfirmed   uint8 = 0x08
	ccConnectAck      uint8 = 0x0f
	ccDisconnect      uint8 = 0x25
	ccReleaseComplete uint8 = 0x2a
	ccRelease         uint8 = 0x2d
	ccFacility        uint8 = 0x3a
	ccStatus          uint8 = 0x3d
	ccNotify          uint8 = 0x3e
)

func handleCC(s *session.Info, h Header, ul bool) Event {
	if !h.Complete() {
		return sanity("CC_LEN")
	}

	switch mt := h.MessageType & MsgTypeMask; mt {
	case ccAlerting:
		return labelf("CALL ALERTING")
	case ccCallProceeding:
		if s.Ciphered() && s.FC.EncRand == 0 && !ul {
			s.FC.Predict++
		}
		if !ul {
			s.MO = true
		}
		return labelf("CALL PROCEEDING")
	case ccProgress:
		return labelf("CALL PROGRESS")
	case ccSetup:
		if ul {
			s.MO = true
		} else {
			s.MT = true
		}
		return labelf("CALL SETUP")
	case ccConnect:
		return labelf("CALL CONNECT")
	case ccCallConfirmed:
		if ul {
			s.MT = true
		} else {
			s.MO = true
		}
		return labelf("CALL CONFIRMED")
	case ccConnectAck:
		return labelf("CALL CONNECT ACK")
	case ccDisconnect:
		return labelf("CALL DISCONNECT")
	case ccReleaseComplete:
		return labelf("CALL RELEASE COMPLETE")
	case ccRelease:
		return labelf("CALL RELEASE")
	case ccFacility:
		return labelf("CALL FACILITY")
	case ccStatus:
		return labelf("CALL STATUS")
	case ccNotify:
		return labelf("CALL NOTIFY")
	default:
		return unknown(s, "CC", mt)
	}
}
