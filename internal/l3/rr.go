package l3

import (
	log "github.com/sirupsen/logrus"

	"diag-parser/internal/session"
	"diag-parser/pkg/types"
)

// Radio resource message types (TS 44.018 10.4). RR is matched on the whole
// octet.
const (
	rrSI13           uint8 = 0x00
	rrSI2bis         uint8 = 0x02
	rrSI2ter         uint8 = 0x03
	rrSI9            uint8 = 0x04
	rrSI5bis         uint8 = 0x05
	rrSI5ter         uint8 = 0x06
	rrSI2quater      uint8 = 0x07
	rrPartialRelease uint8 = 0x0a
	rrChannelRelease uint8 = 0x0d
	rrClassmarkEnq   uint8 = 0x13
	rrMeasReport     uint8 = 0x15
	rrClassmarkChg   uint8 = 0x16
	rrSI8            uint8 = 0x18
	rrSI1            uint8 = 0x19
	rrSI2            uint8 = 0x1a
	rrSI3            uint8 = 0x1b
	rrSI4            uint8 = 0x1c
	rrSI5            uint8 = 0x1d
	rrSI6            uint8 = 0x1e
	rrSI7            uint8 = 0x1f
	rrPagingReq1     uint8 = 0x21
	rrPagingReq2     uint8 = 0x22
	rrPagingReq3     uint8 = 0x24
	rrPagingResponse uint8 = 0x27
	rrHandoverFail   uint8 = 0x28
	rrAssignCompl    uint8 = 0x29
	rrHandoverCmd    uint8 = 0x2b
	rrHandoverCompl  uint8 = 0x2c
	rrAssignCmd      uint8 = 0x2e
	rrAssignFail     uint8 = 0x2f
	rrCipherModeComp uint8 = 0x32
	rrGPRSSuspendReq uint8 = 0x34
	rrCipherModeCmd  uint8 = 0x35
	rrImmAssignExt   uint8 = 0x39
	rrImmAssignRej   uint8 = 0x3a
	rrImmAssign      uint8 = 0x3f
	rrUTRANClassmark uint8 = 0x60
)

// rrLabels names RR messages that only need a label.
var rrLabels = map[uint8]string{
	rrSI13:           "SYSTEM INFO 13",
	rrSI2bis:         "SYSTEM INFO 2bis",
	rrSI2ter:         "SYSTEM INFO 2ter",
	rrSI9:            "SYSTEM INFO 9",
	rrSI5bis:         "SYSTEM INFO 5bis",
	rrSI5ter:         "SYSTEM INFO 5ter",
	rrSI2quater:      "SYSTEM INFO 2quater",
	rrPartialRelease: "PARTIAL RELEASE",
	rrClassmarkEnq:   "CLASSMARK ENQUIRY",
	rrMeasReport:     "MEASUREMENT REPORT",
	rrSI8:            "SYSTEM INFO 8",
	rrSI1:            "SYSTEM INFO 1",
	rrSI2:            "SYSTEM INFO 2",
	rrSI3:            "SYSTEM INFO 3",
	rrSI4:            "SYSTEM INFO 4",
	rrSI5:            "SYSTEM INFO 5",
	rrSI6:            "SYSTEM INFO 6",
	rrSI7:            "SYSTEM INFO 7",
	rrPagingReq1:     "PAGING REQUEST 1",
	rrPagingReq2:     "PAGING REQUEST 2",
	rrPagingReq3:     "PAGING REQUEST 3",
	rrHandoverFail:   "HANDOVER FAILURE",
	rrHandoverCompl:  "HANDOVER COMPLETE",
	rrAssignFail:     "ASSIGNMENT FAILURE",
	rrImmAssignExt:   "IMM ASSIGNMENT EXTENDED",
	rrImmAssignRej:   "IMM ASSIGNMENT REJECT",
	rrImmAssign:      "IMM ASSIGNMENT",
	rrUTRANClassmark: "UTRAN CLASSMARK CHANGE",
}

func (d *Dispatcher) handleRR(s *session.Info, h Header, fn uint32) Event {
	s.SetRAT(types.RATGSM)

	if !h.Complete() {
		return sanity("RR_LEN")
	}

	mt := h.MessageType
	switch mt {
	case rrChannelRelease:
		return d.handleChannelRelease(s, h)

	case rrClassmarkChg:
		cm2, ok := slice(h.Data, 1, 3)
		if !ok {
			return sanity("CLASSMARK_LEN")
		}
		ApplyClassmark(s, cm2, Classmark2)
		return labelf("CLASSMARK CHANGE")

	case rrPagingResponse:
		s.Reset(true)
		return handlePagingResponse(s, h)

	case rrHandoverCmd:
		d.applyAssignment(s, mt, h.Data)
		s.Handover = true
		s.UseNextHop = 2
		return labelf("HANDOVER COMMAND")

	case rrAssignCmd:
		if int64(s.FC.Enc)-int64(s.FC.EncNull)-int64(s.FC.EncSI) == 1 {
			s.ForcedHO = true
		}
		d.applyAssignment(s, mt, h.Data)
		s.Assignment = true
		s.UseNextHop = 1
		return labelf("ASSIGNMENT COMMAND")

	case rrAssignCompl:
		s.AssignComplete = true
		return labelf("ASSIGNMENT COMPLETE")

	case rrCipherModeComp:
		return handleCipherModeComplete(s, h, fn)

	case rrGPRSSuspendReq:
		s.HaveGPRS = true
		return labelf("GPRS SUSPEND")

	case rrCipherModeCmd:
		return handleCipherModeCommand(s, h, fn)

	default:
		if label, ok := rrLabels[mt]; ok {
			return Event{Label: label}
		}
		return unknown(s, "RR", mt)
	}
}

// handleChannelRelease closes the CS transaction. The summary handed to the
// set's Closer carries the release cause and the updated fraud predictor.
func (d *Dispatcher) handleChannelRelease(s *session.Info, h Header) Event {
	cause, ok := h.Byte(0)
	if !ok {
		return sanity("CHAN_REL_LEN")
	}

	s.CountPredict()
	s.Release = true
	s.RRCause = cause
	if b, ok := h.Byte(1); ok && h.Len > 3 && b&0xf0 == 0xc0 {
		s.HaveGPRS = true
	}

	ev := classf("CHANNEL RELEASE", "CHANNEL RELEASE cause=%d", cause)
	s.Reset(false)

	if d.sessions.DualDomain() {
		d.sessions.Unbind(types.DomainPS)
	}
	return ev
}

// handlePagingResponse opens a mobile-terminated transaction.
func handlePagingResponse(s *session.Info, h Header) Event {
	s.Started = true
	s.Closed = false
	s.MT = true

	b, ok := h.Byte(0)
	if !ok {
		return sanity("PAG_RESP_LEN")
	}
	s.InitialSeq = b & 0x07

	if cm2, ok := slice(h.Data, 2, 3); ok {
		ApplyClassmark(s, cm2, Classmark2)
	}
	miType, ev, ok := checkMobileIdentityLV(h.Data, 5)
	if !ok {
		return ev
	}
	s.PagingMI = miType
	return labelf("PAGING RESPONSE")
}

func handleCipherModeComplete(s *session.Info, h Header, fn uint32) Event {
	if s.CipherMissing == session.CipherArmed {
		s.CipherMissing = session.CipherConfirmed
	} else {
		s.CipherMissing = session.CipherMissing
	}

	s.CMCompFirstFN.Set(fn)
	s.CMCompLastFN = session.KnownFN(fn)
	s.CMCompCount++

	if iei, ok := h.Byte(0); ok && iei == ieiMobileIdentity {
		if _, ev, ok := checkMobileIdentityLV(h.Data, 1); !ok {
			return ev
		}
	}
	return labelf("CIPHER MODE COMPLETE")
}

func handleCipherModeCommand(s *session.Info, h Header, fn uint32) Event {
	s.CMCmdFN.Set(fn)
	s.CipherMissing = session.CipherArmed

	b, ok := h.Byte(0)
	if !ok {
		return sanity("CMC_LEN")
	}

	if b&0x01 != 0 {
		s.Cipher = 1 + ((b >> 1) & 0x07)
		if s.Key == [8]byte{} {
			s.Decoded = false
		}
	}
	if b&0x10 != 0 {
		s.CMCIMEISV = true
		s.CountPredict()
	}
	return labelf("CIPHER MODE COMMAND, A5/%d", s.Cipher)
}

// applyAssignment merges the target cell and channel of a command into the
// session. A truncated command keeps what could be read.
func (d *Dispatcher) applyAssignment(s *session.Info, msgType uint8, data []byte) {
	res, err := d.parser.Parse(msgType, data, s.CellARFCNs)
	s.CellARFCNs = res.ARFCNs
	if err != nil {
		log.WithFields(log.Fields{
			"msg_type": msgType,
			"len":      len(data),
		}).Debugf("Incomplete assignment: %v", err)
		return
	}
	s.Channel = res.Channel
}
