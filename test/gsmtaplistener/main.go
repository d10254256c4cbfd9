// GSMTAP listener for end-to-end testing of the diag parser.
// Listens on UDP 4729, decodes incoming GSMTAP headers and prints one line per frame.
//
// Usage:
//
//	go run test/gsmtaplistener/main.go [--addr 127.0.0.1:4729]
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/gopacket"
	log "github.com/sirupsen/logrus"

	"diag-parser/internal/gsmtap"
)

type listener struct {
	addr string
	conn *net.UDPConn

	mu     sync.Mutex
	counts map[string]int

	stats struct {
		received int
		errors   int
	}
}

func newListener(addr string) *listener {
	return &listener{
		addr:   addr,
		counts: make(map[string]int),
	}
}

func (l *listener) listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return fmt.Errorf("resolve addr: %w", err)
	}

	l.conn, err = net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Infof("GSMTAP listener on %s", l.addr)
	return nil
}

func (l *listener) run() error {
	defer l.conn.Close()

	buf := make([]byte, 65535)
	for {
		n, remoteAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.WithError(err).Warn("read error")
			continue
		}

		if err := l.handleFrame(buf[:n], remoteAddr); err != nil {
			log.WithError(err).Warn("handle error")
			l.mu.Lock()
			l.stats.errors++
			l.mu.Unlock()
		}
	}
}

func (l *listener) handleFrame(data []byte, from *net.UDPAddr) error {
	hdr := &gsmtap.GSMTAP{}
	if err := hdr.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return fmt.Errorf("decode from %s: %w", from, err)
	}

	desc := gsmtap.Describe(hdr)
	dir := "DL"
	if hdr.Uplink() {
		dir = "UL"
	}

	l.mu.Lock()
	l.stats.received++
	l.counts[desc]++
	l.mu.Unlock()

	log.WithFields(log.Fields{
		"chan":  desc,
		"dir":   dir,
		"arfcn": hdr.ARFCN & gsmtap.ARFCNMask,
		"fn":    hdr.FrameNumber,
	}).Info(hex.EncodeToString(hdr.LayerPayload()))
	return nil
}

func (l *listener) printStats() {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.Infof("Stats: received=%d errors=%d", l.stats.received, l.stats.errors)
	for desc, n := range l.counts {
		log.Infof("  %-24s %d", desc, n)
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:4729", "UDP address to listen on")
	flag.Parse()

	l := newListener(*addr)
	if err := l.listen(); err != nil {
		log.Fatalf("GSMTAP listener error: %v", err)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("Shutting down...")
		l.printStats()
		l.conn.Close()
	}()

	if err := l.run(); err != nil {
		log.Fatalf("GSMTAP listener error: %v", err)
	}
}
