package l3

import (
	"net/netip"

	"diag-parser/internal/session"
	"diag-parser/pkg/types"
)

// Session management message types (TS 24.008 10.4).
const (
	smActivatePDPRequest   uint8 = 0x01
	smActivatePDPAccept    uint8 = 0x02
	smRequestPDPActivation uint8 = 0x04
)

var smLabels = map[uint8]string{
	0x03: "ACTIVATE PDP REJECT",
	0x05: "REQUEST PDP ACT REJECT",
	0x06: "DEACTIVATE PDP REQUEST",
	0x07: "DEACTIVATE PDP ACCEPT",
	0x08: "MODIFY PDP REQUEST",
	0x09: "MODIFY PDP ACCEPT (MS)",
	0x0a: "MODIFY PDP REQUEST (MS)",
	0x0b: "MODIFY PDP ACCEPT",
	0x0c: "MODIFY PDP REJECT",
	0x0d: "ACTIVATE 2ND PDP REQUEST",
	0x0e: "ACTIVATE 2ND PDP ACCEPT",
	0x0f: "ACTIVATE 2ND PDP REJECT",
	0x15: "SM STATUS",
	0x1b: "REQUEST 2ND PDP ACTIVATION",
	0x1c: "REQUEST 2ND PDP ACT REJECT",
}

const (
	ieiPDPAddress uint8 = 0x2b
	// pdpIPv4Len is the PDP address IE length for an IPv4 address: type
	// organisation, type number and four address octets.
	pdpIPv4Len uint8 = 6
	// MaxPDPAddrLen bounds the textual PDP address kept on the session.
	MaxPDPAddrLen = 15
)

func handleSM(s *session.Info, h Header) Event {
	if !h.Complete() {
		return sanity("SM_LEN")
	}
	if s.Domain() != types.DomainPS {
		return sanity("SM_IN_CS")
	}

	var ev Event
	switch mt := h.MessageType & MsgTypeMask; mt {
	case smActivatePDPRequest:
		s.PDPActivate = true
		ev = labelf("ACTIVATE PDP REQUEST")
	case smActivatePDPAccept:
		ev = handlePDPAccept(s, h.Data)
	case smRequestPDPActivation:
		s.PDPActivate = true
		ev = labelf("REQUEST PDP ACTIVATION")
	default:
		if label, ok := smLabels[mt]; ok {
			ev = Event{Label: label}
		} else {
			ev = unknown(s, "SM", mt)
		}
	}
	ev.PS = true
	return ev
}

// handlePDPAccept extracts an IPv4 PDP address from an Activate PDP Context
// Accept: LLC SAPI, QoS (LV), radio priority, then the optional PDP address.
func handlePDPAccept(s *session.Info, data []byte) Event {
	qosLen, ok := byteAt(data, 1)
	if !ok {
		return sanity("QOS_LEN_OVER")
	}
	off := 1 + 1 + int(qosLen) + 1
	if off >= len(data) {
		return sanity("QOS_LEN_OVER")
	}
	if data[off] != ieiPDPAddress {
		return sanity("NO_PDP_ADDR")
	}
	off++

	if off+7 < len(data) && data[off] == pdpIPv4Len {
		addr := netip.AddrFrom4([4]byte(data[off+3 : off+7]))
		ip := addr.String()
		if len(ip) > MaxPDPAddrLen {
			ip = ip[:MaxPDPAddrLen]
		}
		s.PDPIP = ip
	}
	return labelf("ACTIVATE PDP ACCEPT")
}
