package session

import (
	"diag-parser/internal/assignment"
	"diag-parser/pkg/types"
)

// AuthType is the authentication procedure seen in a transaction.
type AuthType uint8

const (
	AuthNone AuthType = iota
	AuthGSM
	AuthUMTS
)

func (a AuthType) String() string {
	switch a {
	case AuthGSM:
		return "GSM"
	case AuthUMTS:
		return "UMTS"
	default:
		return "none"
	}
}

// CipherState tracks whether a Cipher Mode Complete matched a preceding command.
type CipherState int8

const (
	// CipherArmed is set by a Cipher Mode Command and awaits the complete.
	CipherArmed CipherState = -1
	// CipherConfirmed is the initial state and the result of a complete that
	// followed a command.
	CipherConfirmed CipherState = 0
	// CipherMissing means a complete was seen without a command before it.
	CipherMissing CipherState = 1
)

// FrameKind classifies a burst for the frame counters.
type FrameKind uint8

const (
	FrameEncrypted FrameKind = iota
	FrameNullCipher
	FrameStartIndication
	FrameEncryptedRandomAccess
)

// FrameCounters are fed by burst-level analysis upstream of the L3 handlers.
// Predict counts plaintext-looking signaling while ciphering is claimed active.
type FrameCounters struct {
	Enc     uint32
	EncNull uint32
	EncSI   uint32
	EncRand uint32
	Predict uint32
}

// State is everything a transaction reset clears.
type State struct {
	Started  bool
	Closed   bool
	MO       bool
	MT       bool
	ServReq  bool
	SSA      bool
	Abort    bool
	Unknown  bool
	Release  bool
	HaveGPRS bool

	LocUpd     bool
	LUAccept   bool
	LUReject   bool
	LURejCause uint8

	Attach       bool
	AttachAccept bool
	Detach       bool
	RAUpd        bool
	TMSIRealloc  bool

	RRCause    uint8
	PagingMI   uint8
	InitialSeq uint8

	Cipher     uint8 // 0 = none, n = A5/n
	CipherMask uint8 // bit0 A5/1, bit1 A5/2, bit2 A5/3
	Key        [8]byte
	Decoded    bool

	Auth       AuthType
	AuthReqFN  FrameLatch
	AuthRespFN FrameLatch

	CMCmdFN       FrameLatch
	CMCompFirstFN FrameLatch
	CMCompLastFN  uint32
	CMCompCount   uint32
	CipherMissing CipherState
	CMCIMEISV     bool

	IdenIMSIAC uint32
	IdenIMSIBC uint32
	IdenIMEIAC uint32
	IdenIMEIBC uint32

	FC FrameCounters

	Handover       bool
	ForcedHO       bool
	Assignment     bool
	AssignComplete bool
	UseNextHop     uint8 // 1 after assignment, 2 after handover
	CellARFCNs     []uint16
	Channel        assignment.Channel

	PDPActivate bool
	PDPIP       string

	FirstFN FrameLatch
	LastFN  uint32
}

func newState() State {
	return State{Decoded: true}
}

// Info is the protocol state of one subscriber in one domain.
type Info struct {
	State

	domain   types.Domain
	rat      types.RAT
	inflight *types.RadioMessage
	set      *Set
}

func newInfo(domain types.Domain, set *Set) *Info {
	return &Info{
		State:  newState(),
		domain: domain,
		set:    set,
	}
}

// New returns a standalone session for domain, not attached to any Set.
func New(domain types.Domain) *Info {
	return newInfo(domain, nil)
}

// Domain returns the domain the session was created for.
func (s *Info) Domain() types.Domain {
	return s.domain
}

// RAT returns the radio access technology last seen for this session.
func (s *Info) RAT() types.RAT {
	return s.rat
}

// SetRAT records the radio access technology of the current traffic.
func (s *Info) SetRAT(rat types.RAT) {
	s.rat = rat
}

// Inflight returns the message currently being handled, nil outside handling.
func (s *Info) Inflight() *types.RadioMessage {
	return s.inflight
}

// Ciphered reports whether an A5 algorithm is active.
func (s *Info) Ciphered() bool {
	return s.Cipher != 0
}

// CountPredict increments the fraud predictor when ciphering is claimed
// active but no encrypted random access has been observed yet.
func (s *Info) CountPredict() bool {
	if s.Cipher != 0 && s.FC.EncRand == 0 {
		s.FC.Predict++
		return true
	}
	return false
}

// CountFrame feeds the frame counters from burst-level analysis.
func (s *Info) CountFrame(kind FrameKind) {
	switch kind {
	case FrameEncrypted:
		s.FC.Enc++
	case FrameNullCipher:
		s.FC.EncNull++
	case FrameStartIndication:
		s.FC.EncSI++
	case FrameEncryptedRandomAccess:
		s.FC.EncRand++
	}
}

// Reset ends the current transaction. A started transaction, or any
// transaction ended by a channel release (forced == false), is summarized to
// the Set's Closer first. Domain, RAT and the in-flight binding survive.
func (s *Info) Reset(forced bool) {
	if s.set != nil && s.set.closer != nil && (s.Started || !forced) {
		sum := s.summarize(forced)
		s.set.closer.SessionClosed(sum)
	}
	s.State = newState()
}

// UpdateTimestamps records the in-flight message's frame number as first and
// last seen, for started sessions only.
func (s *Info) UpdateTimestamps() {
	if s.inflight == nil || !s.Started {
		return
	}
	fn := s.inflight.FrameNumber
	s.FirstFN.Set(fn)
	s.LastFN = fn
}
