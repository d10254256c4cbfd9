package l3

import (
	"encoding/hex"

	"diag-parser/internal/assignment"
	"diag-parser/internal/session"
)

// pdNames labels protocol discriminators whose messages are recognized but
// not modeled.
var pdNames = map[uint8]string{
	PDSMS:     "SMS",
	PDGroupCC: "GCC",
	PDBcastCC: "BCC",
	PDPDSS1:   "PDSS1",
	PDPDSS2:   "PDSS2",
	PDLCS:     "LCS",
}

// Dispatcher routes DTAP messages to the handler of their protocol family
// and applies the result to the capture's sessions.
type Dispatcher struct {
	sessions *session.Set
	parser   assignment.Parser
}

// NewDispatcher creates a dispatcher over sessions. A nil parser selects
// assignment.NewParser().
func NewDispatcher(sessions *session.Set, parser assignment.Parser) *Dispatcher {
	if parser == nil {
		parser = assignment.NewParser()
	}
	return &Dispatcher{
		sessions: sessions,
		parser:   parser,
	}
}

// Sessions returns the sessions the dispatcher updates.
func (d *Dispatcher) Sessions() *session.Set {
	return d.sessions
}

// HandleDTAP handles one DTAP message captured at frame number fn. GPRS
// families go to the PS session, everything else to the CS session.
func (d *Dispatcher) HandleDTAP(msg []byte, fn uint32, ul bool) Event {
	if len(msg) == 0 {
		return labelf("<ZERO LENGTH>")
	}

	h, _ := ParseHeader(msg)
	cs := d.sessions.CS()

	switch h.Discriminator {
	case PDCC:
		return handleCC(cs, h, ul)
	case PDMM:
		return d.handleMM(cs, h, fn)
	case PDRR:
		return d.handleRR(cs, h, fn)
	case PDGMM:
		return handleGMM(d.sessions.PS(), h)
	case PDSM:
		return handleSM(d.sessions.PS(), h)
	case PDNCSS:
		return handleSS(cs, h)
	}

	if name, ok := pdNames[h.Discriminator]; ok {
		return Event{Label: name}
	}

	dir := "DL"
	if ul {
		dir = "UL"
	}
	return classf("Unknown proto_discr", "Unknown proto_discr %s: %s", dir, hex.EncodeToString(msg))
}
