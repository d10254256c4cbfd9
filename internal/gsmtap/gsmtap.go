// Package gsmtap implements the GSMTAP version 2 pseudo-header as a gopacket
// layer and maps it to and from radio messages.
//
// GSMTAP v2 header:
//
//	 0               1               2               3
//	+---------------+---------------+---------------+---------------+
//	|    Version    |  Hdr Length   |     Type      |   Timeslot    |
//	+---------------+---------------+---------------+---------------+
//	|             ARFCN             |  Signal dBm   |    SNR dB     |
//	+---------------+---------------+---------------+---------------+
//	|                         Frame Number                          |
//	+---------------+---------------+---------------+---------------+
//	|   Sub-type    |  Antenna Nr   |   Sub-slot    |   Reserved    |
//	+---------------+---------------+---------------+---------------+
//
// Hdr Length counts 32-bit words. ARFCN carries the PCS (0x8000) and uplink
// (0x4000) flags.
package gsmtap

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// Port is the IANA-registered GSMTAP UDP port.
	Port = 4729

	Version   uint8 = 2
	HeaderLen       = 16
)

// Payload types.
const (
	TypeUM      uint8 = 0x01
	TypeUMTSRRC uint8 = 0x0c
	TypeLTERRC  uint8 = 0x0d
)

// Um channel sub-types.
const (
	ChannelBCCH   uint8 = 0x01
	ChannelCCCH   uint8 = 0x02
	ChannelRACH   uint8 = 0x03
	ChannelAGCH   uint8 = 0x04
	ChannelPCH    uint8 = 0x05
	ChannelSDCCH  uint8 = 0x06
	ChannelSDCCH4 uint8 = 0x07
	ChannelSDCCH8 uint8 = 0x08
	ChannelTCHF   uint8 = 0x09
	ChannelTCHH   uint8 = 0x0a

	// ChannelACCH marks the slow associated control channel of a sub-type.
	ChannelACCH uint8 = 0x80
)

// UMTS RRC sub-types.
const (
	UMTSDLDCCH   uint8 = 0
	UMTSULDCCH   uint8 = 1
	UMTSDLCCCH   uint8 = 2
	UMTSULCCCH   uint8 = 3
	UMTSPCCH     uint8 = 4
	UMTSBCCHFACH uint8 = 7
	UMTSBCCHBCH  uint8 = 8
)

// LTE RRC sub-types.
const (
	LTEDLCCCH    uint8 = 0
	LTEDLDCCH    uint8 = 1
	LTEULCCCH    uint8 = 2
	LTEULDCCH    uint8 = 3
	LTEBCCHBCH   uint8 = 4
	LTEBCCHDLSCH uint8 = 5
	LTEPCCH      uint8 = 6
)

const (
	ARFCNPCS    uint16 = 0x8000
	ARFCNUplink uint16 = 0x4000
	ARFCNMask   uint16 = 0x3fff
)

// LayerTypeGSMTAP is registered for UDP port 4729, so packets decoded with
// gopacket expose the header as a layer.
var LayerTypeGSMTAP = gopacket.RegisterLayerType(Port, gopacket.LayerTypeMetadata{
	Name:    "GSMTAP",
	Decoder: gopacket.DecodeFunc(decodeGSMTAP),
})

func init() {
	layers.RegisterUDPPortLayerType(layers.UDPPort(Port), LayerTypeGSMTAP)
}

// GSMTAP is the GSMTAP v2 header.
type GSMTAP struct {
	layers.BaseLayer

	Version      uint8
	HeaderLength uint8 // 32-bit words
	Type         uint8
	Timeslot     uint8
	ARFCN        uint16
	SignalDBm    int8
	SNRdB        int8
	FrameNumber  uint32
	SubType      uint8
	AntennaNr    uint8
	SubSlot      uint8
}

// LayerType returns LayerTypeGSMTAP.
func (g *GSMTAP) LayerType() gopacket.LayerType { return LayerTypeGSMTAP }

// CanDecode returns LayerTypeGSMTAP.
func (g *GSMTAP) CanDecode() gopacket.LayerClass { return LayerTypeGSMTAP }

// NextLayerType returns the payload layer; GSMTAP bodies are not decoded
// further by gopacket.
func (g *GSMTAP) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// Uplink reports whether the ARFCN carries the uplink flag.
func (g *GSMTAP) Uplink() bool {
	return g.ARFCN&ARFCNUplink != 0
}

// DecodeFromBytes decodes a GSMTAP header and splits off its payload.
func (g *GSMTAP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < HeaderLen {
		df.SetTruncated()
		return fmt.Errorf("GSMTAP packet too short: %d bytes", len(data))
	}

	g.Version = data[0]
	if g.Version != Version {
		return fmt.Errorf("unsupported GSMTAP version %d", g.Version)
	}
	g.HeaderLength = data[1]
	hdrLen := int(g.HeaderLength) * 4
	if hdrLen < HeaderLen || hdrLen > len(data) {
		df.SetTruncated()
		return fmt.Errorf("invalid GSMTAP header length %d", hdrLen)
	}

	g.Type = data[2]
	g.Timeslot = data[3]
	g.ARFCN = binary.BigEndian.Uint16(data[4:6])
	g.SignalDBm = int8(data[6])
	g.SNRdB = int8(data[7])
	g.FrameNumber = binary.BigEndian.Uint32(data[8:12])
	g.SubType = data[12]
	g.AntennaNr = data[13]
	g.SubSlot = data[14]

	g.BaseLayer = layers.BaseLayer{Contents: data[:hdrLen], Payload: data[hdrLen:]}
	return nil
}

// SerializeTo writes a 16-byte header in front of the buffer's contents.
// A zero Version or HeaderLength is written as the v2 default.
func (g *GSMTAP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(HeaderLen)
	if err != nil {
		return err
	}

	version := g.Version
	if version == 0 {
		version = Version
	}
	hdrLen := g.HeaderLength
	if hdrLen == 0 || opts.FixLengths {
		hdrLen = HeaderLen / 4
	}

	bytes[0] = version
	bytes[1] = hdrLen
	bytes[2] = g.Type
	bytes[3] = g.Timeslot
	binary.BigEndian.PutUint16(bytes[4:6], g.ARFCN)
	bytes[6] = byte(g.SignalDBm)
	bytes[7] = byte(g.SNRdB)
	binary.BigEndian.PutUint32(bytes[8:12], g.FrameNumber)
	bytes[12] = g.SubType
	bytes[13] = g.AntennaNr
	bytes[14] = g.SubSlot
	bytes[15] = 0
	return nil
}

func decodeGSMTAP(data []byte, p gopacket.PacketBuilder) error {
	g := &GSMTAP{}
	if err := g.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(g)
	return p.NextDecoder(g.NextLayerType())
}
