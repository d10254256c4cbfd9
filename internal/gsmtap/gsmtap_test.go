package gsmtap

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diag-parser/pkg/types"
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func TestGSMTAP_SerializeLayout(t *testing.T) {
	g := &GSMTAP{
		Type:        TypeUM,
		Timeslot:    2,
		ARFCN:       ARFCNUplink | 60,
		SignalDBm:   -70,
		FrameNumber: 0x00012345,
		SubType:     ChannelSDCCH | ChannelACCH,
	}
	data := serialize(t, g, gopacket.Payload([]byte{0xaa, 0xbb}))

	require.Len(t, data, HeaderLen+2)
	assert.Equal(t, []byte{0x02, 0x04, 0x01, 0x02, 0x40, 0x3c, 0xba, 0x00}, data[:8])
	assert.Equal(t, []byte{0x00, 0x01, 0x23, 0x45, 0x86, 0x00, 0x00, 0x00}, data[8:16])
	assert.Equal(t, []byte{0xaa, 0xbb}, data[16:])
}

func TestGSMTAP_Decode(t *testing.T) {
	g := &GSMTAP{Type: TypeLTERRC, ARFCN: 1234, FrameNumber: 99, SubType: LTEULDCCH}
	data := serialize(t, g, gopacket.Payload([]byte{0x01, 0x02, 0x03}))

	packet := gopacket.NewPacket(data, LayerTypeGSMTAP, gopacket.Default)
	layer := packet.Layer(LayerTypeGSMTAP)
	require.NotNil(t, layer)

	got := layer.(*GSMTAP)
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, TypeLTERRC, got.Type)
	assert.Equal(t, uint16(1234), got.ARFCN)
	assert.Equal(t, uint32(99), got.FrameNumber)
	assert.Equal(t, LTEULDCCH, got.SubType)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, got.LayerPayload())
}

func TestGSMTAP_DecodeTruncated(t *testing.T) {
	g := &GSMTAP{}
	err := g.DecodeFromBytes([]byte{0x02, 0x04, 0x01}, gopacket.NilDecodeFeedback)
	assert.Error(t, err)

	err = g.DecodeFromBytes([]byte{0x02, 0x08, 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, gopacket.NilDecodeFeedback)
	assert.Error(t, err)

	err = g.DecodeFromBytes(make([]byte, 16), gopacket.NilDecodeFeedback)
	assert.Contains(t, err.Error(), "version")
}

func TestGSMTAP_DecodedFromUDPPort(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(127, 0, 0, 1),
		DstIP:    net.IPv4(127, 0, 0, 1),
	}
	udp := &layers.UDP{SrcPort: 40000, DstPort: Port}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	data := serialize(t, eth, ip, udp, &GSMTAP{Type: TypeUM, SubType: ChannelBCCH}, gopacket.Payload([]byte{0x01}))

	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	layer := packet.Layer(LayerTypeGSMTAP)
	require.NotNil(t, layer)
	assert.Equal(t, ChannelBCCH, layer.(*GSMTAP).SubType)
}

func TestFromMessage_ClassifyRoundTrip(t *testing.T) {
	tests := []struct {
		rat   types.RAT
		flags types.Flags
		ul    bool
	}{
		{types.RATGSM, types.FlagBCCH, false},
		{types.RATGSM, types.FlagSDCCH, true},
		{types.RATGSM, types.FlagSACCH, false},
		{types.RATGSM, types.FlagFACCH, true},
		{types.RATUMTS, types.FlagSDCCH, true},
		{types.RATUMTS, types.FlagFACCH, false},
		{types.RATLTE, types.FlagSDCCH, false},
		{types.RATLTE, types.FlagBCCH, false},
	}
	for _, tt := range tests {
		m := &types.RadioMessage{RAT: tt.rat, Flags: tt.flags | types.FlagDecoded}
		if tt.ul {
			m.ARFCN = types.ARFCNUplink
		}

		ch, ok := Classify(FromMessage(m))
		require.True(t, ok)
		assert.Equal(t, Channel{RAT: tt.rat, Flags: tt.flags, Uplink: tt.ul}, ch, "%s %02x", tt.rat, uint8(tt.flags))
	}
}

func TestClassify_SkipsNonSignaling(t *testing.T) {
	_, ok := Classify(&GSMTAP{Type: TypeUM, SubType: ChannelRACH})
	assert.False(t, ok)

	_, ok = Classify(&GSMTAP{Type: 0x02})
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "UM SDCCH/ACCH", Describe(&GSMTAP{Type: TypeUM, SubType: ChannelSDCCH | ChannelACCH}))
	assert.Equal(t, "UM 0x1f", Describe(&GSMTAP{Type: TypeUM, SubType: 0x1f}))
	assert.Equal(t, "LTE_RRC 3", Describe(&GSMTAP{Type: TypeLTERRC, SubType: LTEULDCCH}))
	assert.Equal(t, "TYPE 0x02", Describe(&GSMTAP{Type: 0x02}))
}
