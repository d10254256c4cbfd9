// Package output re-emits routed radio messages as GSMTAP, over UDP or into
// a PCAP file.
package output

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"diag-parser/internal/gsmtap"
	"diag-parser/pkg/types"
)

var serializeOpts = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

// EncodeGSMTAP serializes m as a GSMTAP packet into buf and returns the
// bytes, which stay valid until buf is reused.
func EncodeGSMTAP(buf gopacket.SerializeBuffer, m *types.RadioMessage) ([]byte, error) {
	if err := buf.Clear(); err != nil {
		return nil, err
	}
	if err := gopacket.SerializeLayers(buf, serializeOpts, gsmtap.FromMessage(m), gopacket.Payload(m.Payload)); err != nil {
		return nil, fmt.Errorf("failed to serialize GSMTAP: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeFrame wraps m in Ethernet/IPv4/UDP/GSMTAP for a capture file.
func encodeFrame(buf gopacket.SerializeBuffer, m *types.RadioMessage, src, dst net.IP) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		DstMAC:       net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    src,
		DstIP:    dst,
	}
	udp := &layers.UDP{
		SrcPort: gsmtap.Port,
		DstPort: gsmtap.Port,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	if err := buf.Clear(); err != nil {
		return nil, err
	}
	hdr := gsmtap.FromMessage(m)
	if err := gopacket.SerializeLayers(buf, serializeOpts, eth, ip, udp, hdr, gopacket.Payload(m.Payload)); err != nil {
		return nil, fmt.Errorf("failed to serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}
