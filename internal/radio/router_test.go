package radio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diag-parser/internal/l3"
	"diag-parser/internal/session"
	"diag-parser/internal/stats"
	"diag-parser/pkg/types"
)

type emitted struct {
	info   string
	domain types.Domain
}

type recordingSink struct {
	msgs []emitted
	err  error
}

func (s *recordingSink) Emit(m *types.RadioMessage) error {
	s.msgs = append(s.msgs, emitted{info: m.Info, domain: m.Domain})
	return s.err
}

func newTestRouter(dual bool) (*Router, *session.Set, *recordingSink, *stats.Collector) {
	set := session.NewSet(session.Options{DualDomain: dual})
	sink := &recordingSink{}
	collector := stats.NewCollector()
	return NewRouter(l3.NewDispatcher(set, nil), sink, collector), set, sink, collector
}

// bcch wraps a DTAP message behind an L2 pseudo-length octet.
func bcch(fn uint32, ul bool, dtap ...byte) *types.RadioMessage {
	return NewL2(append([]byte{byte(len(dtap)<<2 | 1)}, dtap...), types.RATGSM, types.DomainCS, fn, ul, types.FlagBCCH)
}

func TestRouter_BroadcastIsDispatchedAndEmittedOnce(t *testing.T) {
	r, set, sink, collector := newTestRouter(false)

	m := bcch(1000, true, 0x06, 0x27, 0x02, 0x03, 0x50, 0x58, 0x86, 0x05, 0xf4, 0x01, 0x02, 0x03, 0x04)
	require.NoError(t, r.Route(m))

	require.Len(t, sink.msgs, 1)
	assert.Equal(t, "PAGING RESPONSE", sink.msgs[0].info)
	assert.True(t, m.Released())
	assert.Nil(t, m.Payload)

	cs := set.CS()
	assert.True(t, cs.Started)
	assert.Equal(t, uint32(1000), cs.FirstFN.Value())
	assert.Equal(t, uint32(1000), cs.LastFN)
	assert.Nil(t, cs.Inflight())

	assert.Equal(t, uint64(1), collector.RATStats["GSM"].Forwarded)
	assert.Equal(t, uint64(1), collector.Labels["PAGING RESPONSE"])
}

func TestRouter_TimestampsKeepFirstSeen(t *testing.T) {
	r, set, _, _ := newTestRouter(false)

	require.NoError(t, r.Route(bcch(500, true, 0x05, 0x24, 0x01)))
	require.NoError(t, r.Route(bcch(520, false, 0x05, 0x21)))

	cs := set.CS()
	assert.Equal(t, uint32(500), cs.FirstFN.Value())
	assert.Equal(t, uint32(520), cs.LastFN)
}

func TestRouter_UnstartedSessionHasNoTimestamps(t *testing.T) {
	r, set, _, _ := newTestRouter(false)

	require.NoError(t, r.Route(bcch(500, false, 0x06, 0x1b)))
	assert.False(t, set.CS().FirstFN.IsSet())
}

func TestRouter_PendingMessageIsReleasedWithoutEmit(t *testing.T) {
	r, _, sink, collector := newTestRouter(false)

	m := bcch(1, false, 0x06, 0x1b)
	m.Flags &^= types.FlagDecoded
	require.NoError(t, r.Route(m))

	assert.Empty(t, sink.msgs)
	assert.True(t, m.Released())
	assert.Equal(t, uint64(1), collector.RATStats["GSM"].Released)
}

func TestRouter_InvalidGSMFlagsAreFatal(t *testing.T) {
	for _, flags := range []types.Flags{0, types.FlagSACCH | types.FlagSDCCH, types.FlagDecoded} {
		r, set, sink, _ := newTestRouter(true)
		m := &types.RadioMessage{RAT: types.RATGSM, Flags: flags, Payload: []byte{0x01}}

		err := r.Route(m)
		var fatal *FatalError
		require.True(t, errors.As(err, &fatal), "flags %02x", uint8(flags))
		assert.Equal(t, flags, fatal.Flags)
		assert.Empty(t, sink.msgs)
		assert.True(t, m.Released())
		assert.Nil(t, set.CS().Inflight())
		assert.Nil(t, set.PS().Inflight())
	}
}

func TestRouter_DedicatedGSMIsForwardedUndecoded(t *testing.T) {
	r, _, sink, _ := newTestRouter(false)

	m := NewL3([]byte{0x05, 0x24, 0x01}, types.RATGSM, types.DomainCS, 3, true, types.FlagSDCCH)
	require.NoError(t, r.Route(m))

	require.Len(t, sink.msgs, 1)
	assert.Empty(t, sink.msgs[0].info)
}

func TestRouter_UMTSAndLTESetRAT(t *testing.T) {
	r, set, sink, _ := newTestRouter(true)

	require.NoError(t, r.Route(NewL2([]byte{0x01}, types.RATUMTS, types.DomainCS, 0, false, types.FlagFACCH)))
	assert.Equal(t, types.RATUMTS, set.CS().RAT())
	assert.Equal(t, types.RATUMTS, set.PS().RAT())

	require.NoError(t, r.Route(NewL2([]byte{0x01}, types.RATLTE, types.DomainCS, 0, false, types.FlagBCCH)))
	assert.Equal(t, types.RATUMTS, set.CS().RAT())

	require.NoError(t, r.Route(NewL2([]byte{0x01}, types.RATLTE, types.DomainCS, 0, false, types.FlagSDCCH)))
	assert.Equal(t, types.RATLTE, set.PS().RAT())

	assert.Len(t, sink.msgs, 3)
}

func TestRouter_InvalidUMTSFlagsAreFatal(t *testing.T) {
	r, _, _, _ := newTestRouter(false)
	err := r.Route(&types.RadioMessage{RAT: types.RATUMTS, Flags: types.FlagSACCH})

	var fatal *FatalError
	assert.True(t, errors.As(err, &fatal))
}

func TestRouter_UnknownRATIsReleased(t *testing.T) {
	r, _, sink, _ := newTestRouter(false)

	m := &types.RadioMessage{RAT: types.RAT(9), Flags: types.FlagBCCH | types.FlagDecoded}
	require.NoError(t, r.Route(m))
	assert.Empty(t, sink.msgs)
	assert.True(t, m.Released())
}

func TestRouter_SinkErrorStillReleases(t *testing.T) {
	r, _, sink, collector := newTestRouter(false)
	sink.err = errors.New("connection refused")

	m := bcch(1, false, 0x06, 0x1b)
	require.NoError(t, r.Route(m))

	assert.Len(t, sink.msgs, 1)
	assert.True(t, m.Released())
	assert.Equal(t, uint64(1), collector.RATStats["GSM"].SinkErrors)
}

func TestRouter_GPRSMessagesMoveToPS(t *testing.T) {
	r, set, sink, _ := newTestRouter(true)

	require.NoError(t, r.Route(bcch(42, true, 0x08, 0x08, 0x50)))

	require.Len(t, sink.msgs, 1)
	assert.Equal(t, "RA UPDATE REQUEST", sink.msgs[0].info)
	assert.Equal(t, types.DomainPS, sink.msgs[0].domain)

	assert.Equal(t, uint32(42), set.PS().FirstFN.Value())
	assert.False(t, set.CS().FirstFN.IsSet())
}

func TestRouter_EmptyBroadcast(t *testing.T) {
	r, _, sink, _ := newTestRouter(false)

	require.NoError(t, r.Route(NewL2([]byte{0x01}, types.RATGSM, types.DomainCS, 0, false, types.FlagBCCH)))
	require.Len(t, sink.msgs, 1)
	assert.Equal(t, "<ZERO LENGTH>", sink.msgs[0].info)
}

func TestRouter_LabelHistogramGroupsVaryingLabels(t *testing.T) {
	r, _, sink, collector := newTestRouter(false)

	for i := 0; i < 50; i++ {
		require.NoError(t, r.Route(bcch(uint32(i), false, 0x0e, byte(i), byte(i>>8), 0xaa)))
	}
	require.NoError(t, r.Route(bcch(60, false, 0x06, 0x0d, 0x05)))
	require.NoError(t, r.Route(bcch(61, false, 0x06, 0x0d, 0x09)))

	require.Len(t, sink.msgs, 52)
	assert.Equal(t, "Unknown proto_discr DL: 0e0100aa", sink.msgs[1].info)
	assert.Equal(t, "CHANNEL RELEASE cause=9", sink.msgs[51].info)

	assert.Len(t, collector.Labels, 2)
	assert.Equal(t, uint64(50), collector.Labels["Unknown proto_discr"])
	assert.Equal(t, uint64(2), collector.Labels["CHANNEL RELEASE"])
}
