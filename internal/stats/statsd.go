package stats

import (
	"fmt"

	"gopkg.in/alexcesaro/statsd.v2"
)

// NewStatsdClient creates a statsd client pushing to addr (host:port) under
// prefix. An empty addr uses the library default of localhost:8125.
func NewStatsdClient(addr, prefix string) (*statsd.Client, error) {
	opts := []statsd.Option{statsd.Prefix(prefix)}
	if addr != "" {
		opts = append(opts, statsd.Address(addr))
	}

	client, err := statsd.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client for %s: %w", addr, err)
	}
	return client, nil
}
