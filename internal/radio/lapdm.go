package radio

import (
	"diag-parser/pkg/types"
)

const (
	// MaxLAPDmLen is the capacity of the LAPDm length indicator.
	MaxLAPDmLen = 63

	minDCCHFrame  = 20
	minSACCHFrame = 18
	sacchL1Len    = 2
	lapdmHdrLen   = 3
)

// Nominal channel numbers (RSL 9.3.1) given to constructed messages.
const (
	ChanNrDedicated uint8 = 0x41
	ChanNrFACCH     uint8 = 0x08
	ChanNrBCCH      uint8 = 0x80
)

// EncapsulateLAPDm wraps an L3 message in a synthetic LAPDm UI frame, behind
// a blank L1 header on SACCH. Payloads longer than MaxLAPDmLen are cut; the
// frame is padded to the minimum size with fill octets. Empty input yields
// nil.
func EncapsulateLAPDm(data []byte, ul, sacch bool) []byte {
	if len(data) == 0 {
		return nil
	}

	n := min(len(data), MaxLAPDmLen)

	var frame []byte
	off := 0
	if sacch {
		frame = make([]byte, sacchL1Len+lapdmHdrLen+max(n, minSACCHFrame))
		off = sacchL1Len
	} else {
		frame = make([]byte, lapdmHdrLen+max(n, minDCCHFrame))
	}

	if ul {
		frame[off] = 0x01
	} else {
		frame[off] = 0x03
	}
	frame[off+1] = 0x03
	frame[off+2] = byte(n<<2 | 0x01)
	off += lapdmHdrLen

	off += copy(frame[off:], data[:n])
	for i := off; i < len(frame); i++ {
		frame[i] = types.PadByte
	}
	return frame
}

// NewL2 wraps raw L2 bytes in a RadioMessage tagged decoded. It returns nil
// if data exceeds types.MaxPayloadLen.
func NewL2(data []byte, rat types.RAT, domain types.Domain, fn uint32, ul bool, flags types.Flags) *types.RadioMessage {
	if len(data) > types.MaxPayloadLen {
		return nil
	}

	m := &types.RadioMessage{
		RAT:         rat,
		Domain:      domain,
		Flags:       flags | types.FlagDecoded,
		FrameNumber: fn,
		Payload:     append([]byte(nil), data...),
	}

	switch flags.Channel() {
	case types.FlagSDCCH, types.FlagSACCH:
		m.ChanNr = ChanNrDedicated
	case types.FlagFACCH:
		m.ChanNr = ChanNrFACCH
	case types.FlagBCCH:
		m.ChanNr = ChanNrBCCH
	}

	if ul {
		m.ARFCN = types.ARFCNUplink
	}
	return m
}

// NewL3 builds a RadioMessage from a bare L3 message by LAPDm-encapsulating
// it first. It returns nil for empty input.
func NewL3(data []byte, rat types.RAT, domain types.Domain, fn uint32, ul bool, flags types.Flags) *types.RadioMessage {
	frame := EncapsulateLAPDm(data, ul, flags&types.FlagSACCH != 0)
	if frame == nil {
		return nil
	}
	return NewL2(frame, rat, domain, fn, ul, flags)
}
