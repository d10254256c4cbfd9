// Package assignment extracts target channel and cell information from RR
// Assignment Command and Handover Command messages (3GPP TS 44.018 9.1.2, 9.1.15).
package assignment

import (
	"fmt"
)

// RR message types handled by the parser.
const (
	MsgTypeHandoverCommand   uint8 = 0x2b
	MsgTypeAssignmentCommand uint8 = 0x2e
)

// Channel is the dedicated channel described by Channel Description 2 (10.5.2.5a).
type Channel struct {
	ChannelType uint8 // channel type and TDMA offset, 5 bits
	Timeslot    uint8
	TSC         uint8
	Hopping     bool
	ARFCN       uint16 // valid when Hopping is false
	MAIO        uint8  // valid when Hopping is true
	HSN         uint8  // valid when Hopping is true
}

// Result is what a parsed command tells about the target.
type Result struct {
	Channel   Channel
	CellARFCN uint16 // BCCH ARFCN of the target cell, handover only
	HasCell   bool
	ARFCNs    []uint16 // known cell ARFCNs merged with the ones found here
}

// Parser turns the payload of an assignment-type command into a Result.
type Parser interface {
	Parse(msgType uint8, data []byte, known []uint16) (Result, error)
}

// DefaultParser reads the mandatory leading IEs of both commands.
type DefaultParser struct{}

// NewParser creates a parser for Assignment and Handover Commands.
func NewParser() *DefaultParser {
	return &DefaultParser{}
}

// Parse decodes data, the payload following the RR message type octet.
func (p *DefaultParser) Parse(msgType uint8, data []byte, known []uint16) (Result, error) {
	res := Result{ARFCNs: append([]uint16(nil), known...)}

	switch msgType {
	case MsgTypeAssignmentCommand:
		ch, err := parseChannelDescription2(data)
		if err != nil {
			return res, fmt.Errorf("assignment command: %w", err)
		}
		res.Channel = ch
	case MsgTypeHandoverCommand:
		if len(data) < 2 {
			return res, fmt.Errorf("handover command: cell description truncated (%d bytes)", len(data))
		}
		// 10.5.2.2 Cell Description: NCC(3) BCC(3) ARFCN-high(2), ARFCN-low(8)
		res.CellARFCN = uint16(data[0]>>6)<<8 | uint16(data[1])
		res.HasCell = true
		res.ARFCNs = addARFCN(res.ARFCNs, res.CellARFCN)

		ch, err := parseChannelDescription2(data[2:])
		if err != nil {
			return res, fmt.Errorf("handover command: %w", err)
		}
		res.Channel = ch
	default:
		return res, fmt.Errorf("unsupported message type 0x%02x", msgType)
	}

	if !res.Channel.Hopping {
		res.ARFCNs = addARFCN(res.ARFCNs, res.Channel.ARFCN)
	}
	return res, nil
}

func parseChannelDescription2(b []byte) (Channel, error) {
	if len(b) < 3 {
		return Channel{}, fmt.Errorf("channel description truncated (%d bytes)", len(b))
	}
	ch := Channel{
		ChannelType: b[0] >> 3,
		Timeslot:    b[0] & 0x07,
		TSC:         b[1] >> 5,
		Hopping:     b[1]&0x10 != 0,
	}
	if ch.Hopping {
		ch.MAIO = (b[1]&0x0f)<<2 | b[2]>>6
		ch.HSN = b[2] & 0x3f
	} else {
		ch.ARFCN = uint16(b[1]&0x03)<<8 | uint16(b[2])
	}
	return ch, nil
}

func addARFCN(list []uint16, arfcn uint16) []uint16 {
	for _, a := range list {
		if a == arfcn {
			return list
		}
	}
	return append(list, arfcn)
}
