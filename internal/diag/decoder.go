package diag

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"

	"diag-parser/internal/radio"
	"diag-parser/pkg/types"
)

const (
	// CmdLog is the diag command code of a log record.
	CmdLog = 0x10

	// LogGSMRRSignaling is the log code of a GSM RR signaling message.
	LogGSMRRSignaling uint16 = 0x512f

	// Log record layout: cmd, more, len, len, code, timestamp.
	logCodeOff   = 6
	logHeaderLen = 16

	// GSM RR signaling body: channel, message type, length, L3 message.
	rrChannelOff = logHeaderLen
	rrLengthOff  = logHeaderLen + 2
	rrDataOff    = logHeaderLen + 3

	rrDownlink    = 0x80
	rrChannelMask = 0x7f

	// gsmMacBlockLen is the size of a GSM L2 block on a common channel.
	gsmMacBlockLen = 23
)

// Diag GSM RR channel types.
const (
	ChannelDCCH  = 0
	ChannelBCCH  = 1
	ChannelCCCH  = 3
	ChannelSACCH = 4
)

// Decoder turns diag log records into radio messages.
type Decoder struct {
	Records int
	Skipped int
}

// NewDecoder creates a log-record decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode converts one unescaped frame. It returns nil for frames that are
// not GSM RR signaling records or that cannot be decoded.
func (d *Decoder) Decode(frame []byte) *types.RadioMessage {
	if len(frame) < rrDataOff || frame[0] != CmdLog {
		d.Skipped++
		return nil
	}

	code := binary.LittleEndian.Uint16(frame[logCodeOff:])
	if code != LogGSMRRSignaling {
		log.WithField("log_code", code).Debug("Skipping diag log record")
		d.Skipped++
		return nil
	}

	chanByte := frame[rrChannelOff]
	ul := chanByte&rrDownlink == 0
	n := int(frame[rrLengthOff])
	if rrDataOff+n > len(frame) {
		log.WithFields(log.Fields{
			"declared": n,
			"have":     len(frame) - rrDataOff,
		}).Warn("Truncated GSM RR signaling record")
		d.Skipped++
		return nil
	}
	msg := frame[rrDataOff : rrDataOff+n]

	var m *types.RadioMessage
	switch chanByte & rrChannelMask {
	case ChannelDCCH:
		m = radio.NewL3(msg, types.RATGSM, types.DomainCS, 0, ul, types.FlagSDCCH)
	case ChannelSACCH:
		m = radio.NewL3(msg, types.RATGSM, types.DomainCS, 0, ul, types.FlagSACCH)
	case ChannelBCCH, ChannelCCCH:
		m = radio.NewL2(pseudoLength(msg), types.RATGSM, types.DomainCS, 0, ul, types.FlagBCCH)
	default:
		log.WithField("channel", chanByte&rrChannelMask).Debug("Unsupported GSM RR channel type")
	}

	if m == nil {
		d.Skipped++
		return nil
	}
	d.Records++
	return m
}

// pseudoLength prefixes msg with an L2 pseudo-length octet and pads the
// block with fill octets. The length field saturates at radio.MaxLAPDmLen.
func pseudoLength(msg []byte) []byte {
	block := make([]byte, 0, max(len(msg)+1, gsmMacBlockLen))
	block = append(block, byte(min(len(msg), radio.MaxLAPDmLen)<<2|0x01))
	block = append(block, msg...)
	for len(block) < gsmMacBlockLen {
		block = append(block, types.PadByte)
	}
	return block
}
