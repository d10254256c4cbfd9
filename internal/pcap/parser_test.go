package pcap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diag-parser/internal/output"
	"diag-parser/internal/radio"
	"diag-parser/pkg/types"
)

func writeCapture(t *testing.T, msgs ...*types.RadioMessage) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "in.pcap")
	w, err := output.NewPCAPWriter(file)
	require.NoError(t, err)
	for _, m := range msgs {
		require.NoError(t, w.Emit(m))
	}
	require.NoError(t, w.Close())
	return file
}

func TestParser_Replay(t *testing.T) {
	bcch := radio.NewL2([]byte{0x01, 0x06, 0x1b}, types.RATGSM, types.DomainCS, 100, false, types.FlagBCCH)
	bcch.ARFCN |= 60
	sdcch := radio.NewL3([]byte{0x05, 0x24, 0x01}, types.RATGSM, types.DomainCS, 101, true, types.FlagSDCCH)
	rrc := radio.NewL2([]byte{0x55}, types.RATUMTS, types.DomainCS, 102, true, types.FlagFACCH)
	file := writeCapture(t, bcch, sdcch, rrc)

	var got []*types.RadioMessage
	res, err := NewParser().Replay(context.Background(), file, func(m *types.RadioMessage) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPackets)
	assert.Equal(t, 3, res.GSMTAPPackets)
	assert.Equal(t, 3, res.Messages)

	require.Len(t, got, 3)
	assert.Equal(t, types.FlagBCCH, got[0].Flags.Channel())
	assert.Equal(t, uint16(60), got[0].ARFCN)
	assert.Equal(t, []byte{0x01, 0x06, 0x1b}, got[0].Payload)
	assert.Equal(t, radio.ChanNrBCCH, got[0].ChanNr)

	assert.Equal(t, types.FlagSDCCH, got[1].Flags.Channel())
	assert.True(t, got[1].Uplink())
	assert.Equal(t, uint32(101), got[1].FrameNumber)
	assert.True(t, got[1].Flags.Decoded())

	assert.Equal(t, types.RATUMTS, got[2].RAT)
	assert.True(t, got[2].Uplink())
}

func TestParser_ReplayStopsOnHandlerError(t *testing.T) {
	m := radio.NewL2([]byte{0x01}, types.RATGSM, types.DomainCS, 1, false, types.FlagBCCH)
	file := writeCapture(t, m, m)

	stop := errors.New("stop")
	calls := 0
	res, err := NewParser().Replay(context.Background(), file, func(*types.RadioMessage) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Messages)
}

func TestParser_ReplayMissingFile(t *testing.T) {
	_, err := NewParser().Replay(context.Background(), "/nonexistent.pcap", func(*types.RadioMessage) error { return nil })
	assert.Error(t, err)
}

func TestParser_CountMessages(t *testing.T) {
	bcch := radio.NewL2([]byte{0x01}, types.RATGSM, types.DomainCS, 1, false, types.FlagBCCH)
	sacch := radio.NewL3([]byte{0x06, 0x15}, types.RATGSM, types.DomainCS, 2, true, types.FlagSACCH)
	file := writeCapture(t, bcch, bcch, sacch)

	counts, err := NewParser().CountMessages(file)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"UM BCCH": 2, "UM SDCCH/ACCH": 1}, counts)
}
