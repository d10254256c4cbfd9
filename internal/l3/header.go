// Package l3 reconstructs GSM/GPRS Layer-3 (DTAP) signaling into per-subscriber
// session state (3GPP TS 24.007, 24.008, 44.018).
package l3

// Protocol discriminators (TS 24.007 11.2.3.1.1).
const (
	PDGroupCC uint8 = 0x00
	PDBcastCC uint8 = 0x01
	PDPDSS1   uint8 = 0x02
	PDCC      uint8 = 0x03
	PDPDSS2   uint8 = 0x04
	PDMM      uint8 = 0x05
	PDRR      uint8 = 0x06
	PDGMM     uint8 = 0x08
	PDSMS     uint8 = 0x09
	PDSM      uint8 = 0x0a
	PDNCSS    uint8 = 0x0b
	PDLCS     uint8 = 0x0c

	PDMask uint8 = 0x0f
)

// MsgTypeMask selects the message type bits of CC, MM, GMM, SM and SS; the
// top bits carry the send sequence number.
const MsgTypeMask uint8 = 0x3f

// Header is a DTAP message split into its fixed two-octet header and payload.
// Payload reads go through Byte so a short message never reads past its end.
type Header struct {
	Discriminator uint8
	Skip          uint8 // transaction identifier or skip indicator
	MessageType   uint8
	Data          []byte
	Len           int // whole message, header included
}

// ParseHeader splits msg. It reports false when msg is shorter than the
// two header octets; the discriminator is still filled in when present.
func ParseHeader(msg []byte) (Header, bool) {
	h := Header{Len: len(msg)}
	if len(msg) > 0 {
		h.Discriminator = msg[0] & PDMask
		h.Skip = msg[0] >> 4
	}
	if len(msg) < 2 {
		return h, false
	}
	h.MessageType = msg[1]
	h.Data = msg[2:]
	return h, true
}

// Complete reports whether the fixed header is present.
func (h Header) Complete() bool {
	return h.Len >= 2
}

// Byte returns payload octet i.
func (h Header) Byte(i int) (uint8, bool) {
	return byteAt(h.Data, i)
}

func byteAt(b []byte, i int) (uint8, bool) {
	if i < 0 || i >= len(b) {
		return 0, false
	}
	return b[i], true
}

// slice returns b[from:from+n] if it is entirely inside b.
func slice(b []byte, from, n int) ([]byte, bool) {
	if from < 0 || n < 0 || from+n > len(b) {
		return nil, false
	}
	return b[from : from+n], true
}
