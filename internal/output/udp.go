package output

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/google/gopacket"

	"diag-parser/internal/gsmtap"
	"diag-parser/pkg/types"
)

// UDPSender sends radio messages as GSMTAP datagrams to a single target.
type UDPSender struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	buf    gopacket.SerializeBuffer
	mu     sync.Mutex
}

// NewUDPSender binds an ephemeral local port and targets host[:port]. The
// port defaults to the GSMTAP port.
func NewUDPSender(target string) (*UDPSender, error) {
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = net.JoinHostPort(target, strconv.Itoa(gsmtap.Port))
	}

	remoteAddr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GSMTAP target %s: %w", target, err)
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP for %s: %w", target, err)
	}

	return &UDPSender{
		conn:   conn,
		target: remoteAddr,
		buf:    gopacket.NewSerializeBuffer(),
	}, nil
}

// Emit sends m as one GSMTAP datagram.
func (s *UDPSender) Emit(m *types.RadioMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := EncodeGSMTAP(s.buf, m)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(data, s.target); err != nil {
		return fmt.Errorf("failed to send to %s: %w", s.target, err)
	}
	return nil
}

// Target returns the address datagrams are sent to.
func (s *UDPSender) Target() *net.UDPAddr {
	return s.target
}

// LocalAddr returns the local address the sender is bound to.
func (s *UDPSender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close closes the UDP connection.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
