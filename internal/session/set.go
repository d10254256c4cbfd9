package session

import (
	"fmt"

	"diag-parser/pkg/types"
)

// Closer receives the summary of every transaction a reset ends.
type Closer interface {
	SessionClosed(Summary)
}

// Options configure a Set.
type Options struct {
	// DualDomain keeps separate CS and PS sessions. Without it every
	// discriminator, GPRS included, lands on the single CS session.
	DualDomain bool

	// MaxCMCDelayFN flags a cipher mode complete arriving more than this many
	// frames after the command. 0 disables the check.
	MaxCMCDelayFN uint32

	// Closer receives transaction summaries; nil discards them.
	Closer Closer
}

// Set holds the live sessions of a capture: one CS session, plus a PS
// session in dual-domain mode. Slot i always holds the session of domain i.
type Set struct {
	slots       []*Info
	closer      Closer
	maxCMCDelay uint32
}

// NewSet allocates the sessions for a capture.
func NewSet(opts Options) *Set {
	set := &Set{
		closer:      opts.Closer,
		maxCMCDelay: opts.MaxCMCDelayFN,
	}
	set.slots = append(set.slots, newInfo(types.DomainCS, set))
	if opts.DualDomain {
		set.slots = append(set.slots, newInfo(types.DomainPS, set))
	}
	return set
}

// DualDomain reports whether CS and PS are tracked separately.
func (s *Set) DualDomain() bool {
	return len(s.slots) == 2
}

// CS returns the circuit-switched session.
func (s *Set) CS() *Info {
	return s.slot(types.DomainCS)
}

// PS returns the packet-switched session, which is the CS session when
// dual-domain tracking is off.
func (s *Set) PS() *Info {
	return s.For(types.DomainPS)
}

// For returns the session tracking domain d.
func (s *Set) For(d types.Domain) *Info {
	if d == types.DomainPS && s.DualDomain() {
		return s.slot(types.DomainPS)
	}
	return s.slot(types.DomainCS)
}

// All returns the live sessions in domain order.
func (s *Set) All() []*Info {
	return s.slots
}

// Bind makes m the in-flight message of every session.
func (s *Set) Bind(m *types.RadioMessage) {
	for i := range s.slots {
		s.slot(types.Domain(i)).inflight = m
	}
}

// Unbind clears the in-flight message of the session tracking domain d.
func (s *Set) Unbind(d types.Domain) {
	s.For(d).inflight = nil
}

// UnbindAll clears the in-flight message of every session.
func (s *Set) UnbindAll() {
	for _, info := range s.slots {
		info.inflight = nil
	}
}

// SetRAT records rat on every session.
func (s *Set) SetRAT(rat types.RAT) {
	for _, info := range s.slots {
		info.rat = rat
	}
}

func (s *Set) slot(d types.Domain) *Info {
	info := s.slots[d]
	if info.domain != d {
		panic(fmt.Sprintf("session slot %d holds domain %s", d, info.domain))
	}
	return info
}
