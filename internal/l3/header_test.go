package l3

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diag-parser/internal/session"
	"diag-parser/pkg/types"
)

func TestParseHeader(t *testing.T) {
	h, ok := ParseHeader([]byte{0x15, 0x24, 0x01})
	assert.True(t, ok)
	assert.Equal(t, PDMM, h.Discriminator)
	assert.Equal(t, uint8(0x01), h.Skip)
	assert.Equal(t, uint8(0x24), h.MessageType)
	assert.Equal(t, 3, h.Len)

	b, ok := h.Byte(0)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x01), b)

	_, ok = h.Byte(1)
	assert.False(t, ok)
}

func TestParseHeader_Short(t *testing.T) {
	h, ok := ParseHeader([]byte{0x06})
	assert.False(t, ok)
	assert.False(t, h.Complete())
	assert.Equal(t, PDRR, h.Discriminator)
	assert.Nil(t, h.Data)
}

func TestApplyClassmark(t *testing.T) {
	s := session.New(types.DomainCS)

	assert.True(t, ApplyClassmark(s, []byte{0x08}, Classmark1))
	assert.Zero(t, s.CipherMask)

	assert.True(t, ApplyClassmark(s, []byte{0x50, 0x58, 0x01}, Classmark2))
	assert.Equal(t, uint8(0x03), s.CipherMask)

	// bits accumulate
	assert.True(t, ApplyClassmark(s, []byte{0x58, 0x58, 0x02}, Classmark2))
	assert.Equal(t, uint8(0x07), s.CipherMask)

	assert.False(t, ApplyClassmark(s, []byte{0x50}, Classmark2))
	assert.False(t, ApplyClassmark(s, nil, Classmark1))
}

func TestCheckMobileIdentity(t *testing.T) {
	typ, _, ok := checkMobileIdentity([]byte{0xf4, 1, 2, 3, 4}, 5)
	assert.True(t, ok)
	assert.Equal(t, MITypeTMSI, typ)

	_, ev, ok := checkMobileIdentity([]byte{0x0d}, 1)
	assert.False(t, ok)
	assert.Equal(t, "FAILED SANITY CHECKS (MI_TYPE)", ev.Label)

	_, ev, ok = checkMobileIdentity(make([]byte, 40), 40)
	assert.False(t, ok)
	assert.Equal(t, "FAILED SANITY CHECKS (MI_LEN)", ev.Label)

	typ, _, ok = checkMobileIdentity(nil, 0)
	assert.True(t, ok)
	assert.Equal(t, MITypeNone, typ)
}
