package types

import (
	"fmt"
)

// RAT is the radio access technology a message was captured on.
type RAT uint8

const (
	RATGSM RAT = iota
	RATUMTS
	RATLTE
)

func (r RAT) String() string {
	switch r {
	case RATGSM:
		return "GSM"
	case RATUMTS:
		return "UMTS"
	case RATLTE:
		return "LTE"
	default:
		return fmt.Sprintf("RAT(%d)", uint8(r))
	}
}

// Domain selects the circuit-switched or packet-switched session.
type Domain uint8

const (
	DomainCS Domain = iota
	DomainPS
)

func (d Domain) String() string {
	if d == DomainPS {
		return "PS"
	}
	return "CS"
}

// Flags holds the logical-channel class and the processing state of a message.
type Flags uint8

const (
	FlagSACCH Flags = 0x01
	FlagSDCCH Flags = 0x02
	FlagFACCH Flags = 0x04
	FlagBCCH  Flags = 0x08

	// ChannelMask selects the logical-channel bits; exactly one is expected.
	ChannelMask Flags = 0x0f

	FlagDecoded Flags = 0x10
)

// Channel returns the logical-channel bits of f.
func (f Flags) Channel() Flags {
	return f & ChannelMask
}

// Decoded reports whether the message is ready to be forwarded.
func (f Flags) Decoded() bool {
	return f&FlagDecoded != 0
}

const (
	// ARFCNUplink marks an uplink burst in the ARFCN field (GSMTAP convention).
	ARFCNUplink uint16 = 0x4000

	// MaxFN is substituted for an unknown (zero) frame number when a first
	// occurrence is recorded: 26 * 51 * 2048.
	MaxFN uint32 = 2715648

	// PadByte is the GSM L2 fill octet.
	PadByte byte = 0x2b

	// MaxPayloadLen bounds RadioMessage.Payload.
	MaxPayloadLen = 255

	// MaxInfoLen bounds the advisory description attached to a message.
	MaxInfoLen = 128
)

// RadioMessage is one decoded burst on a logical channel. A message has a
// single owner; whoever holds it last must Release it exactly once.
type RadioMessage struct {
	RAT         RAT
	Domain      Domain
	Flags       Flags
	ChanNr      uint8
	ARFCN       uint16
	FrameNumber uint32
	Payload     []byte
	Info        string

	released bool
}

// Uplink reports whether the burst was captured in the uplink direction.
func (m *RadioMessage) Uplink() bool {
	return m.ARFCN&ARFCNUplink != 0
}

// Direction returns "UL" or "DL".
func (m *RadioMessage) Direction() string {
	if m.Uplink() {
		return "UL"
	}
	return "DL"
}

// SetInfo replaces the advisory description, truncating it to MaxInfoLen.
// It reports whether the description was truncated.
func (m *RadioMessage) SetInfo(format string, args ...any) bool {
	info := format
	if len(args) > 0 {
		info = fmt.Sprintf(format, args...)
	}
	truncated := false
	if len(info) > MaxInfoLen {
		info = info[:MaxInfoLen]
		truncated = true
	}
	m.Info = info
	return truncated
}

// Release ends the life of the message. Payload and description are dropped;
// a second call is a no-op.
func (m *RadioMessage) Release() {
	if m.released {
		return
	}
	m.released = true
	m.Payload = nil
	m.Info = ""
}

// Released reports whether Release has been called.
func (m *RadioMessage) Released() bool {
	return m.released
}
