package l3

import (
	"diag-parser/internal/session"
)

// Mobility management message types (TS 24.008 10.4).
const (
	mmIMSIDetach       uint8 = 0x01
	mmLocUpdAccept     uint8 = 0x02
	mmLocUpdReject     uint8 = 0x04
	mmLocUpdRequest    uint8 = 0x08
	mmAuthReject       uint8 = 0x11
	mmAuthRequest      uint8 = 0x12
	mmAuthResponse     uint8 = 0x14
	mmIdentityRequest  uint8 = 0x18
	mmIdentityResponse uint8 = 0x19
	mmTMSIReallocCmd   uint8 = 0x1a
	mmTMSIReallocCompl uint8 = 0x1b
	mmAuthFailure      uint8 = 0x1c
	mmCMServiceAccept  uint8 = 0x21
	mmCMServiceReject  uint8 = 0x22
	mmCMServiceAbort   uint8 = 0x23
	mmCMServiceRequest uint8 = 0x24
	mmAbort            uint8 = 0x29
	mmStatus           uint8 = 0x31
	mmInformation      uint8 = 0x32
)

// CM service types (TS 24.008 10.5.3.3).
const (
	CMServiceMOCall    uint8 = 0x01
	CMServiceEmergency uint8 = 0x02
	CMServiceSMS       uint8 = 0x04
	CMServiceSS        uint8 = 0x08
)

// Optional IEIs looked for in MM messages.
const (
	ieiMobileIdentity uint8 = 0x17
	ieiAUTN           uint8 = 0x20
	ieiAuthRespExt    uint8 = 0x21
)

func (d *Dispatcher) handleMM(s *session.Info, h Header, fn uint32) Event {
	if h.Len < 2 {
		return sanity("MM_LEN")
	}

	switch mt := h.MessageType & MsgTypeMask; mt {
	case mmIMSIDetach:
		s.Reset(true)
		s.Started = true
		s.Detach = true
		s.MO = true
		if cm1, ok := slice(h.Data, 0, 1); ok {
			ApplyClassmark(s, cm1, Classmark1)
		}
		if _, ev, ok := checkMobileIdentityLV(h.Data, 1); !ok {
			return ev
		}
		return labelf("IMSI DETACH")

	case mmLocUpdAccept:
		s.LocUpd = true
		s.MO = true
		s.LUAccept = true
		if iei, ok := h.Byte(5); ok && len(h.Data) > 11 && iei == ieiMobileIdentity {
			s.TMSIRealloc = true
		}
		return labelf("LOC UPD ACCEPT")

	case mmLocUpdReject:
		s.LocUpd = true
		s.LUReject = true
		s.MO = true
		cause, ok := h.Byte(0)
		if !ok {
			return sanity("LUR_CAUSE")
		}
		s.LURejCause = cause
		return classf("LOC UPD REJECT", "LOC UPD REJECT cause=%d", cause)

	case mmLocUpdRequest:
		s.Reset(true)
		if h.Len < 8 {
			return sanity("LUR_DTAP_SIZE")
		}
		s.Started = true
		s.LocUpd = true
		s.MO = true
		s.InitialSeq = (h.Data[0] >> 4) & 0x07
		if cm1, ok := slice(h.Data, 6, 1); ok {
			ApplyClassmark(s, cm1, Classmark1)
		}
		if _, ev, ok := checkMobileIdentityLV(h.Data, 7); !ok {
			return ev
		}
		return labelf("LOC UPD REQUEST")

	case mmAuthReject:
		return labelf("AUTH REJECT")

	case mmAuthRequest:
		autn, ok1 := h.Byte(17)
		autnLen, ok2 := h.Byte(18)
		if h.Len > 19 && ok1 && ok2 && autn == ieiAUTN && autnLen == 0x10 {
			s.Auth = session.AuthUMTS
		} else {
			s.Auth = session.AuthGSM
		}
		s.AuthReqFN.Set(fn)
		return labelf("AUTH REQUEST (%s)", s.Auth)

	case mmAuthResponse:
		ext, ok1 := h.Byte(4)
		extLen, ok2 := h.Byte(5)
		if s.Auth == session.AuthNone {
			if h.Len > 6 && ok1 && ok2 && ext == ieiAuthRespExt && extLen == 0x04 {
				s.Auth = session.AuthUMTS
			} else {
				s.Auth = session.AuthGSM
			}
		}
		s.AuthRespFN.Set(fn)
		return labelf("AUTH RESPONSE")

	case mmIdentityRequest:
		return handleIDRequest(s, h)

	case mmIdentityResponse:
		return handleIDResponse(s, h)

	case mmTMSIReallocCmd:
		s.TMSIRealloc = true
		return labelf("TMSI REALLOC COMMAND")

	case mmTMSIReallocCompl:
		s.TMSIRealloc = true
		return labelf("TMSI REALLOC COMPLETE")

	case mmAuthFailure:
		return labelf("AUTH FAILURE")

	case mmCMServiceAccept:
		s.MO = true
		return labelf("CM SERVICE ACCEPT")

	case mmCMServiceReject:
		return labelf("CM SERVICE REJECT")

	case mmCMServiceAbort:
		s.MO = true
		return labelf("CM SERVICE ABORT")

	case mmCMServiceRequest:
		s.Reset(true)
		s.Started = true
		s.Closed = false
		s.ServReq = true
		s.MO = true
		return handleCMServiceRequest(s, h)

	case mmAbort:
		s.Abort = true
		return labelf("MM ABORT")

	case mmStatus:
		return labelf("MM STATUS")

	case mmInformation:
		return labelf("MM INFORMATION")

	default:
		return unknown(s, "MM", mt)
	}
}

// handleCMServiceRequest reads the CM service type, cipher key sequence
// number, classmark 2 and mobile identity of a CM Service Request.
func handleCMServiceRequest(s *session.Info, h Header) Event {
	b, ok := h.Byte(0)
	if !ok {
		return sanity("CM_SERV_LEN")
	}

	label := "CM SERVICE REQUEST"
	switch b & 0x0f {
	case CMServiceMOCall:
		label += ", CALL"
	case CMServiceEmergency:
		label += ", EMERGENCY"
	case CMServiceSMS:
		label += ", SMS"
	case CMServiceSS:
		s.SSA = true
		label += ", SS"
	default:
		s.Unknown = true
	}
	s.InitialSeq = (b >> 4) & 0x07

	if cm2, ok := slice(h.Data, 2, 3); ok {
		ApplyClassmark(s, cm2, Classmark2)
	}
	if _, ev, ok := checkMobileIdentityLV(h.Data, 5); !ok {
		return ev
	}
	return Event{Label: label}
}
