package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"diag-parser/internal/config"
	"diag-parser/internal/diag"
	"diag-parser/internal/pcap"
	"diag-parser/internal/radio"
	"diag-parser/internal/stats"
	"diag-parser/pkg/types"
)

// pipeline feeds every input through the router in order.
type pipeline struct {
	router    *radio.Router
	collector *stats.Collector
	parser    *pcap.Parser
	decoder   *diag.Decoder
}

func newPipeline(router *radio.Router, collector *stats.Collector) *pipeline {
	return &pipeline{
		router:    router,
		collector: collector,
		parser:    pcap.NewParser(),
		decoder:   diag.NewDecoder(),
	}
}

func (p *pipeline) processFiles(ctx context.Context, format string, files []string) error {
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch format {
		case config.FormatDiag:
			err = p.processDiagFile(ctx, name)
		default:
			err = p.processPcapFile(ctx, name)
		}
		if err != nil {
			return err
		}
		p.collector.RecordInputFile()
	}
	return nil
}

func (p *pipeline) processPcapFile(ctx context.Context, name string) error {
	result, err := p.parser.Replay(ctx, name, p.route)
	if result != nil {
		for range result.Skipped {
			p.collector.RecordSkipped()
		}
	}
	return err
}

func (p *pipeline) processDiagFile(ctx context.Context, name string) error {
	if name == "-" {
		return p.processDiagStream(ctx, "stdin", os.Stdin)
	}

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open input file %s: %w", name, err)
	}
	defer f.Close()

	return p.processDiagStream(ctx, name, f)
}

func (p *pipeline) processDiagStream(ctx context.Context, name string, r io.Reader) error {
	rd := diag.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := rd.Next()
		switch {
		case errors.Is(err, io.EOF):
			log.WithFields(log.Fields{
				"file":    name,
				"frames":  rd.Frames,
				"dropped": rd.Dropped,
			}).Info("Diag input complete")
			return nil
		case errors.Is(err, diag.ErrFCS), errors.Is(err, diag.ErrShortFrame), errors.Is(err, diag.ErrFrameTooLong):
			log.WithError(err).WithField("file", name).Debug("Dropping diag frame")
			p.collector.RecordInputError()
			continue
		case err != nil:
			return err
		}

		m := p.decoder.Decode(frame)
		if m == nil {
			p.collector.RecordSkipped()
			continue
		}
		if err := p.route(m); err != nil {
			return err
		}
	}
}

func (p *pipeline) route(m *types.RadioMessage) error {
	return p.router.Route(m)
}
