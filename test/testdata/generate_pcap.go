// +build ignore

// This program generates sample GSMTAP pcap and diag stream files for testing.
package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"diag-parser/internal/diag"
	"diag-parser/internal/gsmtap"
	"diag-parser/internal/radio"
)

// Common-channel GSM RR messages, L3 only.
var (
	si3        = []byte{0x06, 0x1b, 0x00, 0x01, 0x62, 0xf2, 0x20, 0x00, 0x01}
	pagingReq1 = []byte{0x06, 0x21, 0x00, 0x08, 0x29, 0x26, 0x24, 0x00, 0x00, 0x00, 0x00, 0x10}
	immAssign  = []byte{0x06, 0x3f, 0x00, 0x51, 0x0c, 0x68, 0x23, 0x00, 0x00, 0x00, 0x00}
)

// Dedicated-channel messages, L3 only.
var (
	luRequest = []byte{0x05, 0x08, 0x70, 0x62, 0xf2, 0x20, 0x00, 0x01, 0x33, 0x08, 0x29, 0x26, 0x24, 0x00, 0x00, 0x00, 0x00, 0x10}
	chanRel   = []byte{0x06, 0x0d, 0x00}
)

func main() {
	pcapFile := "test/testdata/sample.pcap"
	diagFile := "test/testdata/sample.diag"
	if len(os.Args) > 1 {
		pcapFile = os.Args[1]
	}
	if len(os.Args) > 2 {
		diagFile = os.Args[2]
	}

	writePcap(pcapFile)
	writeDiag(diagFile)

	fmt.Printf("Generated %s and %s\n", pcapFile, diagFile)
}

func writePcap(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		panic(err)
	}

	bts := net.ParseIP("127.0.0.1")
	host := net.ParseIP("127.0.0.2")
	mac, _ := net.ParseMAC("00:00:00:00:00:00")
	ts := time.Now()
	fn := uint32(1000)

	// Helper to write a GSMTAP packet as an Ethernet/IP/UDP frame
	writePacket := func(hdr *gsmtap.GSMTAP, payload []byte) {
		eth := &layers.Ethernet{
			SrcMAC:       mac,
			DstMAC:       mac,
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    bts,
			DstIP:    host,
		}
		udp := &layers.UDP{
			SrcPort: gsmtap.Port,
			DstPort: gsmtap.Port,
		}
		udp.SetNetworkLayerForChecksum(ip)

		hdr.Version = gsmtap.Version
		hdr.FrameNumber = fn
		hdr.ARFCN |= 62

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, hdr, gopacket.Payload(payload)); err != nil {
			panic(fmt.Sprintf("failed to serialize: %v", err))
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
		ts = ts.Add(5 * time.Millisecond)
		fn++
	}

	common := func(l3 []byte) []byte {
		return append([]byte{byte(len(l3)<<2 | 1)}, l3...)
	}

	// === 1. Broadcast and paging (decoded) ===
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelBCCH}, common(si3))
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelPCH}, common(pagingReq1))
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelAGCH}, common(immAssign))

	// === 2. Dedicated channel (forwarded as is) ===
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelSDCCH4, ARFCN: gsmtap.ARFCNUplink},
		radio.EncapsulateLAPDm(luRequest, true, false))
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelSDCCH4},
		radio.EncapsulateLAPDm(chanRel, false, false))

	// === 3. Access burst (skipped) ===
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUM, SubType: gsmtap.ChannelRACH, ARFCN: gsmtap.ARFCNUplink}, []byte{0x0f})

	// === 4. UMTS and LTE RRC ===
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeUMTSRRC, SubType: gsmtap.UMTSULDCCH, ARFCN: gsmtap.ARFCNUplink}, []byte{0x11, 0x22, 0x33})
	writePacket(&gsmtap.GSMTAP{Type: gsmtap.TypeLTERRC, SubType: gsmtap.LTEBCCHDLSCH}, []byte{0x00, 0x80, 0x1c})
}

func writeDiag(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	record := func(channel byte, l3 []byte) []byte {
		rec := make([]byte, 16, 19+len(l3))
		rec[0] = diag.CmdLog
		binary.LittleEndian.PutUint16(rec[6:], diag.LogGSMRRSignaling)
		rec = append(rec, channel, l3[1], byte(len(l3)))
		return append(rec, l3...)
	}

	frames := [][]byte{
		record(0x80|diag.ChannelBCCH, si3),
		record(0x80|diag.ChannelCCCH, pagingReq1),
		record(diag.ChannelDCCH, luRequest),
		record(0x80|diag.ChannelDCCH, chanRel),
	}
	for _, fr := range frames {
		if _, err := f.Write(diag.Frame(fr)); err != nil {
			panic(err)
		}
	}
}
