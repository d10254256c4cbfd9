package l3

import (
	"diag-parser/internal/session"
)

// Mobile identity types (TS 24.008 10.5.1.4).
const (
	MITypeNone   uint8 = 0
	MITypeIMSI   uint8 = 1
	MITypeIMEI   uint8 = 2
	MITypeIMEISV uint8 = 3
	MITypeTMSI   uint8 = 4

	MITypeMask uint8 = 0x07

	// MaxMobileIdentityLen bounds the value part of a mobile identity IE.
	MaxMobileIdentityLen = 33
)

// checkMobileIdentity validates the value part of a mobile identity whose
// length octet announced n bytes. On failure the returned Event is the
// sanity label to report.
func checkMobileIdentity(mi []byte, n int) (uint8, Event, bool) {
	if n > MaxMobileIdentityLen || n > len(mi) {
		return 0, sanity("MI_LEN"), false
	}
	if n == 0 {
		return MITypeNone, Event{}, true
	}

	miType := mi[0] & MITypeMask
	switch miType {
	case MITypeNone, MITypeIMSI, MITypeIMEI, MITypeIMEISV, MITypeTMSI:
		return miType, Event{}, true
	default:
		return miType, sanity("MI_TYPE"), false
	}
}

// checkMobileIdentityLV validates a length-prefixed mobile identity at
// data[off]. A missing IE is not an error.
func checkMobileIdentityLV(data []byte, off int) (uint8, Event, bool) {
	n, ok := byteAt(data, off)
	if !ok {
		return MITypeNone, Event{}, true
	}
	return checkMobileIdentity(data[off+1:], int(n))
}

// countIdentity increments exactly one of the four identity counters.
func countIdentity(s *session.Info, miType uint8) bool {
	switch miType {
	case MITypeIMSI:
		if s.Ciphered() {
			s.IdenIMSIAC++
		} else {
			s.IdenIMSIBC++
		}
	case MITypeIMEI, MITypeIMEISV:
		if s.Ciphered() {
			s.IdenIMEIAC++
		} else {
			s.IdenIMEIBC++
		}
	default:
		return false
	}
	return true
}

// handleIDRequest classifies an (MM or GMM) Identity Request by the
// requested identity type in the low bits of the first payload octet.
func handleIDRequest(s *session.Info, h Header) Event {
	b, ok := h.Byte(0)
	if !ok {
		return sanity("ID_REQ_LEN")
	}

	miType := b & MITypeMask
	countIdentity(s, miType)

	switch miType {
	case MITypeIMSI:
		return labelf("IDENTITY REQUEST, IMSI")
	case MITypeIMEI, MITypeIMEISV:
		return labelf("IDENTITY REQUEST, IMEI")
	default:
		return labelf("IDENTITY REQUEST")
	}
}

// handleIDResponse classifies an Identity Response by the type of the
// mobile identity it carries.
func handleIDResponse(s *session.Info, h Header) Event {
	miType, ev, ok := checkMobileIdentityLV(h.Data, 0)
	if !ok {
		return ev
	}
	countIdentity(s, miType)
	return labelf("IDENTITY RESPONSE")
}
