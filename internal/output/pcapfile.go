package output

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"

	"diag-parser/pkg/types"
)

const snapLen = 65535

// PCAPWriter writes radio messages as GSMTAP-in-UDP frames to a capture file.
type PCAPWriter struct {
	filePath string
	file     *os.File
	writer   *pcapgo.Writer
	buf      gopacket.SerializeBuffer
	src      net.IP
	dst      net.IP
	count    int64
	now      func() time.Time
	mu       sync.Mutex
}

// NewPCAPWriter creates filePath and writes the file header.
func NewPCAPWriter(filePath string) (*PCAPWriter, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create PCAP file %s: %w", filePath, err)
	}

	w := pcapgo.NewWriter(file)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write PCAP header to %s: %w", filePath, err)
	}

	log.WithField("file", filePath).Info("Created PCAP writer")

	return &PCAPWriter{
		filePath: filePath,
		file:     file,
		writer:   w,
		buf:      gopacket.NewSerializeBuffer(),
		src:      net.IPv4(127, 0, 0, 1),
		dst:      net.IPv4(127, 0, 0, 1),
		now:      time.Now,
	}, nil
}

// Emit appends m to the capture.
func (w *PCAPWriter) Emit(m *types.RadioMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("writer is closed")
	}

	data, err := encodeFrame(w.buf, m, w.src, w.dst)
	if err != nil {
		return err
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     w.now(),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.writer.WritePacket(ci, data); err != nil {
		return fmt.Errorf("failed to write packet to %s: %w", w.filePath, err)
	}
	w.count++
	return nil
}

// Count returns the number of packets written.
func (w *PCAPWriter) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes and closes the file.
func (w *PCAPWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil

	log.WithFields(log.Fields{
		"file":    w.filePath,
		"packets": w.count,
	}).Info("Closed PCAP writer")

	if err != nil {
		return fmt.Errorf("failed to close PCAP file %s: %w", w.filePath, err)
	}
	return nil
}
