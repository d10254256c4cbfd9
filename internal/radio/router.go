// Package radio routes decoded radio bursts into L3 processing and owns the
// single hand-off of every message to the output sink.
package radio

import (
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"

	"diag-parser/internal/l3"
	"diag-parser/internal/session"
	"diag-parser/internal/stats"
	"diag-parser/pkg/types"
)

// Sink receives every message the router forwards. The message is released
// right after Emit returns, so a sink must not keep it.
type Sink interface {
	Emit(m *types.RadioMessage) error
}

// FatalError reports a message whose channel flags the upstream decoder
// should never produce. Processing must stop.
type FatalError struct {
	RAT   types.RAT
	Flags types.Flags
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("invalid channel flags 0x%02x on %s message", uint8(e.Flags), e.RAT)
}

// Router is the entry point for decoded bursts.
type Router struct {
	sessions   *session.Set
	dispatcher *l3.Dispatcher
	sink       Sink
	stats      *stats.Collector
}

// NewRouter creates a router feeding dispatcher. A nil sink drops forwarded
// messages; a nil collector is replaced by a private one.
func NewRouter(dispatcher *l3.Dispatcher, sink Sink, collector *stats.Collector) *Router {
	if collector == nil {
		collector = stats.NewCollector()
	}
	return &Router{
		sessions:   dispatcher.Sessions(),
		dispatcher: dispatcher,
		sink:       sink,
		stats:      collector,
	}
}

// Route handles one message and disposes of it: on return m has been
// released, after being emitted if it was decoded. The only error is
// *FatalError.
func (r *Router) Route(m *types.RadioMessage) error {
	ul := m.Uplink()
	rat := m.RAT.String()

	m.Info = ""
	r.stats.RecordReceived(rat)
	r.sessions.Bind(m)

	switch m.RAT {
	case types.RATGSM:
		switch m.Flags.Channel() {
		case types.FlagSACCH, types.FlagSDCCH, types.FlagFACCH:
			// TODO: decode dedicated-channel L3 once LAPDm reassembly exists
		case types.FlagBCCH:
			var dtap []byte
			if len(m.Payload) > 1 {
				dtap = m.Payload[1:]
			}
			r.apply(m, r.dispatcher.HandleDTAP(dtap, m.FrameNumber, ul))
		default:
			return r.fatal(m)
		}

	case types.RATUMTS:
		switch {
		case m.Flags&types.FlagSDCCH != 0, m.Flags&types.FlagFACCH != 0:
			r.sessions.SetRAT(types.RATUMTS)
		case m.Flags&types.FlagBCCH != 0:
		default:
			return r.fatal(m)
		}

	case types.RATLTE:
		if m.Flags&types.FlagSDCCH != 0 {
			r.sessions.SetRAT(types.RATLTE)
		}

	default:
		log.WithField("rat", rat).Warn("Unhandled RAT")
		r.sessions.UnbindAll()
		r.stats.RecordReleased(rat)
		m.Release()
		return nil
	}

	r.sessions.For(m.Domain).UpdateTimestamps()
	r.logMessage(m)
	r.dispose(m)
	return nil
}

func (r *Router) apply(m *types.RadioMessage, ev l3.Event) {
	if ev.PS {
		m.Domain = types.DomainPS
	}
	if m.SetInfo("%s", ev.Label) {
		log.WithField("label", ev.Label).Debug("Message description truncated")
	}
	r.stats.RecordEvent(m.RAT.String(), ev.Key(), ev.Kind.String())
}

func (r *Router) dispose(m *types.RadioMessage) {
	rat := m.RAT.String()
	r.sessions.UnbindAll()

	if !m.Flags.Decoded() {
		r.stats.RecordReleased(rat)
		m.Release()
		return
	}

	if r.sink != nil {
		if err := r.sink.Emit(m); err != nil {
			log.WithFields(log.Fields{
				"rat": rat,
				"fn":  m.FrameNumber,
			}).Warnf("Failed to emit message: %v", err)
			r.stats.RecordSinkError(rat)
		} else {
			r.stats.RecordForwarded(rat)
		}
	}
	m.Release()
}

func (r *Router) fatal(m *types.RadioMessage) error {
	err := &FatalError{RAT: m.RAT, Flags: m.Flags}
	r.sessions.UnbindAll()
	r.stats.RecordFatal()
	m.Release()
	return err
}

func (r *Router) logMessage(m *types.RadioMessage) {
	if !m.Flags.Decoded() || !log.IsLevelEnabled(log.DebugLevel) {
		return
	}

	desc := m.Info
	if desc == "" {
		desc = hex.EncodeToString(m.Payload)
	}
	log.WithFields(log.Fields{
		"rat":    m.RAT,
		"domain": m.Domain,
		"dir":    m.Direction(),
		"fn":     m.FrameNumber,
	}).Debug(desc)
}
