package output

import (
	"errors"
	"io"

	"diag-parser/pkg/types"
)

// Emitter is anything a routed message can be handed to.
type Emitter interface {
	Emit(m *types.RadioMessage) error
}

// Fanout emits every message to all of its sinks. Every sink is tried even
// if an earlier one fails.
type Fanout struct {
	sinks []Emitter
}

// NewFanout creates a fan-out over sinks, skipping nil entries.
func NewFanout(sinks ...Emitter) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Emit hands m to every sink and joins their errors.
func (f *Fanout) Emit(m *types.RadioMessage) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Emit(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that is an io.Closer.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
