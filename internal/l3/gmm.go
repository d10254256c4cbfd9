package l3

import (
	"diag-parser/internal/session"
	"diag-parser/pkg/types"
)

// GPRS mobility management message types (TS 24.008 10.4).
const (
	gmmAttachRequest     uint8 = 0x01
	gmmAttachAccept      uint8 = 0x02
	gmmAttachComplete    uint8 = 0x03
	gmmAttachReject      uint8 = 0x04
	gmmDetachRequest     uint8 = 0x05
	gmmDetachAccept      uint8 = 0x06
	gmmRAUpdateRequest   uint8 = 0x08
	gmmRAUpdateAccept    uint8 = 0x09
	gmmRAUpdateComplete  uint8 = 0x0a
	gmmRAUpdateReject    uint8 = 0x0b
	gmmServiceRequest    uint8 = 0x0c
	gmmServiceAccept     uint8 = 0x0d
	gmmServiceReject     uint8 = 0x0e
	gmmPTMSIReallocCmd   uint8 = 0x10
	gmmPTMSIReallocCompl uint8 = 0x11
	gmmAuthCipherReq     uint8 = 0x12
	gmmAuthCipherResp    uint8 = 0x13
	gmmAuthCipherReject  uint8 = 0x14
	gmmIdentityRequest   uint8 = 0x15
	gmmIdentityResponse  uint8 = 0x16
	gmmStatus            uint8 = 0x20
	gmmInformation       uint8 = 0x21
)

const (
	ieiGMMAUTN   uint8 = 0x28
	ieiGMMIMEISV uint8 = 0x23
)

var gmmLabels = map[uint8]string{
	gmmAttachReject:      "ATTACH REJECT",
	gmmDetachAccept:      "DETACH ACCEPT",
	gmmRAUpdateReject:    "RA UPDATE REJECT",
	gmmServiceAccept:     "SERVICE ACCEPT",
	gmmServiceReject:     "SERVICE REJECT",
	gmmPTMSIReallocCmd:   "PTMSI REALLOC COMMAND",
	gmmPTMSIReallocCompl: "PTMSI REALLOC COMPLETE",
	gmmStatus:            "GMM STATUS",
	gmmInformation:       "GMM INFORMATION",
}

// handleGMM expects the PS session; in single-domain mode GMM traffic is
// labeled and otherwise ignored.
func handleGMM(s *session.Info, h Header) Event {
	if !h.Complete() {
		return sanity("GMM_LEN")
	}
	if s.Domain() != types.DomainPS {
		return sanity("GMM_IN_CS")
	}

	ev := gmmMessage(s, h)
	ev.PS = true
	return ev
}

func gmmMessage(s *session.Info, h Header) Event {
	switch mt := h.MessageType & MsgTypeMask; mt {
	case gmmAttachRequest:
		s.Reset(true)
		s.Started = true
		s.Attach = true
		s.MO = true
		// MS network capability (LV) precedes attach type and CKSN
		if n, ok := h.Byte(0); ok {
			if b, ok := h.Byte(1 + int(n)); ok {
				s.InitialSeq = (b >> 4) & 0x07
			}
		}
		return labelf("ATTACH REQUEST")

	case gmmAttachAccept:
		s.Attach = true
		s.AttachAccept = true
		return labelf("ATTACH ACCEPT")

	case gmmAttachComplete:
		s.AttachAccept = true
		return labelf("ATTACH COMPLETE")

	case gmmDetachRequest:
		s.Started = true
		return labelf("DETACH REQUEST")

	case gmmRAUpdateRequest:
		s.Reset(true)
		s.RAUpd = true
		s.MO = true
		s.Started = true
		s.Closed = false
		b, ok := h.Byte(0)
		if !ok {
			return sanity("RAU_LEN")
		}
		s.InitialSeq = (b >> 4) & 0x07
		return labelf("RA UPDATE REQUEST")

	case gmmRAUpdateAccept:
		s.RAUpd = true
		s.LUAccept = true
		return labelf("RA UPDATE ACCEPT")

	case gmmRAUpdateComplete:
		s.RAUpd = true
		return labelf("RA UPDATE COMPLETE")

	case gmmServiceRequest:
		s.Reset(true)
		s.Started = true
		s.Closed = false
		s.ServReq = true
		b, ok := h.Byte(0)
		if !ok {
			return sanity("SERV_REQ_LEN")
		}
		s.InitialSeq = b & 0x07
		return labelf("SERVICE REQUEST")

	case gmmAuthCipherReq:
		b, ok := h.Byte(0)
		if !ok {
			return sanity("AUTH_CIPH_LEN")
		}
		if !s.Ciphered() {
			s.Cipher = b & 0x07
		}
		s.CMCIMEISV = b&0x70 != 0
		if autn, ok := h.Byte(20); ok && h.Len > 22 && autn == ieiGMMAUTN {
			s.Auth = session.AuthUMTS
		} else {
			s.Auth = session.AuthGSM
		}
		return labelf("AUTH AND CIPHER REQUEST")

	case gmmAuthCipherResp:
		if s.Auth == session.AuthNone {
			s.Auth = session.AuthGSM
		}
		if iei, ok := h.Byte(6); ok && h.Len > 17 && iei == ieiGMMIMEISV {
			s.CMCIMEISV = true
		}
		return labelf("AUTH AND CIPHER RESPONSE")

	case gmmAuthCipherReject:
		s.Auth = session.AuthGSM
		return labelf("AUTH AND CIPHER REJECT")

	case gmmIdentityRequest:
		return handleIDRequest(s, h)

	case gmmIdentityResponse:
		return handleIDResponse(s, h)

	default:
		if label, ok := gmmLabels[mt]; ok {
			return Event{Label: label}
		}
		return unknown(s, "GMM", mt)
	}
}
