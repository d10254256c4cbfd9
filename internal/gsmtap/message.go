package gsmtap

import (
	"fmt"

	"diag-parser/pkg/types"
)

// FromMessage builds the GSMTAP header describing m.
func FromMessage(m *types.RadioMessage) *GSMTAP {
	ul := m.Uplink()
	g := &GSMTAP{
		Version:      Version,
		HeaderLength: HeaderLen / 4,
		ARFCN:        m.ARFCN,
		FrameNumber:  m.FrameNumber,
	}

	switch m.RAT {
	case types.RATUMTS:
		g.Type = TypeUMTSRRC
		switch m.Flags.Channel() {
		case types.FlagSDCCH:
			g.SubType = pick(ul, UMTSULDCCH, UMTSDLDCCH)
		case types.FlagFACCH:
			g.SubType = pick(ul, UMTSULCCCH, UMTSDLCCCH)
		default:
			g.SubType = UMTSBCCHBCH
		}
	case types.RATLTE:
		g.Type = TypeLTERRC
		switch m.Flags.Channel() {
		case types.FlagSDCCH:
			g.SubType = pick(ul, LTEULDCCH, LTEDLDCCH)
		case types.FlagFACCH:
			g.SubType = pick(ul, LTEULCCCH, LTEDLCCCH)
		default:
			g.SubType = LTEBCCHDLSCH
		}
	default:
		g.Type = TypeUM
		switch m.Flags.Channel() {
		case types.FlagSACCH:
			g.SubType = ChannelSDCCH | ChannelACCH
		case types.FlagSDCCH:
			g.SubType = ChannelSDCCH
		case types.FlagFACCH:
			g.SubType = ChannelTCHF
		default:
			g.SubType = ChannelBCCH
		}
	}
	return g
}

// Channel is what a GSMTAP header says about the logical channel of its
// payload.
type Channel struct {
	RAT    types.RAT
	Flags  types.Flags
	Uplink bool
}

// Classify maps a header to a radio channel. It reports false for payloads
// that carry no signaling, such as unknown types and Um sub-types.
func Classify(g *GSMTAP) (Channel, bool) {
	ch := Channel{Uplink: g.Uplink()}

	switch g.Type {
	case TypeUM:
		ch.RAT = types.RATGSM
		acch := g.SubType&ChannelACCH != 0
		switch g.SubType &^ ChannelACCH {
		case ChannelBCCH, ChannelCCCH, ChannelAGCH, ChannelPCH:
			ch.Flags = types.FlagBCCH
		case ChannelSDCCH, ChannelSDCCH4, ChannelSDCCH8:
			ch.Flags = types.FlagSDCCH
			if acch {
				ch.Flags = types.FlagSACCH
			}
		case ChannelTCHF, ChannelTCHH:
			ch.Flags = types.FlagFACCH
			if acch {
				ch.Flags = types.FlagSACCH
			}
		default:
			return ch, false
		}

	case TypeUMTSRRC:
		ch.RAT = types.RATUMTS
		switch g.SubType {
		case UMTSDLDCCH, UMTSULDCCH:
			ch.Flags = types.FlagSDCCH
		case UMTSDLCCCH, UMTSULCCCH:
			ch.Flags = types.FlagFACCH
		default:
			ch.Flags = types.FlagBCCH
		}
		if g.SubType == UMTSULDCCH || g.SubType == UMTSULCCCH {
			ch.Uplink = true
		}

	case TypeLTERRC:
		ch.RAT = types.RATLTE
		switch g.SubType {
		case LTEDLDCCH, LTEULDCCH:
			ch.Flags = types.FlagSDCCH
		case LTEDLCCCH, LTEULCCCH:
			ch.Flags = types.FlagFACCH
		default:
			ch.Flags = types.FlagBCCH
		}
		if g.SubType == LTEULDCCH || g.SubType == LTEULCCCH {
			ch.Uplink = true
		}

	default:
		return ch, false
	}
	return ch, true
}

func pick(ul bool, uplink, downlink uint8) uint8 {
	if ul {
		return uplink
	}
	return downlink
}

var umChannelNames = map[uint8]string{
	ChannelBCCH:   "BCCH",
	ChannelCCCH:   "CCCH",
	ChannelRACH:   "RACH",
	ChannelAGCH:   "AGCH",
	ChannelPCH:    "PCH",
	ChannelSDCCH:  "SDCCH",
	ChannelSDCCH4: "SDCCH4",
	ChannelSDCCH8: "SDCCH8",
	ChannelTCHF:   "TCH/F",
	ChannelTCHH:   "TCH/H",
}

// Describe names the type and sub-type of g, e.g. "UM SDCCH/ACCH".
func Describe(g *GSMTAP) string {
	switch g.Type {
	case TypeUM:
		name, ok := umChannelNames[g.SubType&^ChannelACCH]
		if !ok {
			name = fmt.Sprintf("0x%02x", g.SubType&^ChannelACCH)
		}
		if g.SubType&ChannelACCH != 0 {
			name += "/ACCH"
		}
		return "UM " + name
	case TypeUMTSRRC:
		return fmt.Sprintf("UMTS_RRC %d", g.SubType)
	case TypeLTERRC:
		return fmt.Sprintf("LTE_RRC %d", g.SubType)
	default:
		return fmt.Sprintf("TYPE 0x%02x", g.Type)
	}
}
