// Package diag reads HDLC-framed diagnostic streams and turns GSM RR
// signaling log records into radio messages.
package diag

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	flagByte   = 0x7e
	escapeByte = 0x7d
	escapeXOR  = 0x20
	fcsLen     = 2

	// MaxFrameLen bounds an unescaped frame; longer frames are dropped.
	MaxFrameLen = 4096
)

var (
	// ErrFCS reports a frame whose trailing CRC does not match its contents.
	ErrFCS = errors.New("frame check sequence mismatch")

	// ErrShortFrame reports a frame too short to carry a CRC.
	ErrShortFrame = errors.New("frame shorter than its check sequence")

	// ErrFrameTooLong reports a frame longer than MaxFrameLen.
	ErrFrameTooLong = errors.New("frame exceeds maximum length")
)

// Reader splits a byte stream into unescaped, CRC-checked frames.
type Reader struct {
	r       *bufio.Reader
	buf     []byte
	Frames  int
	Dropped int
}

// NewReader creates a frame reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   bufio.NewReader(r),
		buf: make([]byte, 0, MaxFrameLen),
	}
}

// Next returns the next frame with escapes removed and the CRC stripped.
// Empty frames are skipped. At the end of the stream it returns io.EOF; a
// trailing frame with no closing flag is discarded. ErrFCS, ErrShortFrame
// and ErrFrameTooLong are per-frame: the caller may keep reading.
func (rd *Reader) Next() ([]byte, error) {
	for {
		frame, err := rd.readFrame()
		if err != nil {
			return nil, err
		}
		if len(frame) == 0 {
			continue
		}

		if len(frame) < fcsLen {
			rd.Dropped++
			return nil, ErrShortFrame
		}
		body := frame[:len(frame)-fcsLen]
		got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
		if want := FCS(body); got != want {
			rd.Dropped++
			return nil, fmt.Errorf("%w: got %04x, want %04x", ErrFCS, got, want)
		}

		rd.Frames++
		return append([]byte(nil), body...), nil
	}
}

func (rd *Reader) readFrame() ([]byte, error) {
	rd.buf = rd.buf[:0]
	escaped := false
	overflow := false

	for {
		b, err := rd.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read diag stream: %w", err)
		}

		switch {
		case b == flagByte:
			if overflow {
				rd.Dropped++
				return nil, ErrFrameTooLong
			}
			return rd.buf, nil
		case escaped:
			b ^= escapeXOR
			escaped = false
		case b == escapeByte:
			escaped = true
			continue
		}

		if len(rd.buf) >= MaxFrameLen {
			overflow = true
			continue
		}
		rd.buf = append(rd.buf, b)
	}
}

// Frame escapes data, appends its CRC and the closing flag.
func Frame(data []byte) []byte {
	fcs := FCS(data)
	raw := append(append([]byte(nil), data...), byte(fcs), byte(fcs>>8))

	out := make([]byte, 0, len(raw)+len(raw)/8+1)
	for _, b := range raw {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXOR)
			continue
		}
		out = append(out, b)
	}
	return append(out, flagByte)
}

var fcsTable = func() [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// FCS computes the CRC-16/X.25 frame check sequence of data.
func FCS(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc = crc>>8 ^ fcsTable[byte(crc)^b]
	}
	return ^crc
}
