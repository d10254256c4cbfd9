// Package pcap replays GSMTAP-in-UDP captures as radio messages.
package pcap

import (
	"context"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"

	"diag-parser/internal/gsmtap"
	"diag-parser/internal/radio"
	"diag-parser/pkg/types"
)

// Handler receives each radio message read from a capture and takes
// ownership of it.
type Handler func(m *types.RadioMessage) error

// ParseResult counts what a replay saw.
type ParseResult struct {
	TotalPackets  int
	GSMTAPPackets int
	Messages      int
	Skipped       int
}

// Parser reads PCAP files and extracts GSMTAP radio messages.
type Parser struct{}

// NewParser creates a new PCAP parser.
func NewParser() *Parser {
	return &Parser{}
}

// Replay reads filename and hands every GSMTAP signaling message to handle
// in capture order. It stops at the first handler error or when ctx is done.
func (p *Parser) Replay(ctx context.Context, filename string, handle Handler) (*ParseResult, error) {
	h, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", filename, err)
	}
	defer h.Close()

	linkType := h.LinkType()
	log.WithField("link_type", linkType.String()).Debug("PCAP link type detected")

	packetSource := gopacket.NewPacketSource(h, linkType)
	packetSource.DecodeOptions.Lazy = true
	packetSource.DecodeOptions.NoCopy = true

	result := &ParseResult{}

	for packet := range packetSource.Packets() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalPackets++

		hdr, payload, ok := gsmtapLayer(packet)
		if !ok {
			continue
		}
		result.GSMTAPPackets++

		ch, ok := gsmtap.Classify(hdr)
		if !ok {
			result.Skipped++
			continue
		}

		// NewL2 copies the payload, which NoCopy leaves owned by the handle
		m := radio.NewL2(payload, ch.RAT, types.DomainCS, hdr.FrameNumber, ch.Uplink, ch.Flags)
		if m == nil {
			log.WithFields(log.Fields{
				"packet": result.TotalPackets,
				"len":    len(payload),
			}).Warn("GSMTAP payload too long, skipping")
			result.Skipped++
			continue
		}
		m.ARFCN |= hdr.ARFCN & gsmtap.ARFCNMask

		result.Messages++
		if err := handle(m); err != nil {
			return result, err
		}
	}

	log.WithFields(log.Fields{
		"file":           filename,
		"total_packets":  result.TotalPackets,
		"gsmtap_packets": result.GSMTAPPackets,
		"messages":       result.Messages,
		"skipped":        result.Skipped,
	}).Info("PCAP replay complete")

	return result, nil
}

// CountMessages returns a summary of GSMTAP channel types found in a pcap file.
func (p *Parser) CountMessages(filename string) (map[string]int, error) {
	h, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", filename, err)
	}
	defer h.Close()

	packetSource := gopacket.NewPacketSource(h, h.LinkType())
	counts := make(map[string]int)

	for packet := range packetSource.Packets() {
		hdr, _, ok := gsmtapLayer(packet)
		if !ok {
			continue
		}
		counts[gsmtap.Describe(hdr)]++
	}

	return counts, nil
}

// gsmtapLayer finds the GSMTAP header of a packet. Captures whose UDP layer
// was not decoded through the registered port are decoded by hand.
func gsmtapLayer(packet gopacket.Packet) (*gsmtap.GSMTAP, []byte, bool) {
	if l := packet.Layer(gsmtap.LayerTypeGSMTAP); l != nil {
		hdr, ok := l.(*gsmtap.GSMTAP)
		if ok {
			return hdr, hdr.LayerPayload(), true
		}
	}

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, nil, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return nil, nil, false
	}
	if udp.DstPort != gsmtap.Port && udp.SrcPort != gsmtap.Port {
		return nil, nil, false
	}

	hdr := &gsmtap.GSMTAP{}
	if err := hdr.DecodeFromBytes(udp.Payload, gopacket.NilDecodeFeedback); err != nil {
		log.WithError(err).Debug("Failed to decode GSMTAP header, skipping")
		return nil, nil, false
	}
	return hdr, hdr.LayerPayload(), true
}
