// Package audio provides sinks for the APU's signed 16-bit sample batches.
package audio

import (
	"errors"
	"sync"
)

// Sink consumes sample batches. Write must not retain samples after it
// returns.
type Sink interface {
	Write(samples []int16) error
	Close() error
}

// Fanout delivers every batch to several sinks
type Fanout struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewFanout creates a fan-out over the given sinks
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add attaches another sink
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	f.sinks = append(f.sinks, s)
	f.mu.Unlock()
}

// Write hands the batch to every sink and returns their joined errors
func (f *Fanout) Write(samples []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for _, s := range f.sinks {
		if err := s.Write(samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (f *Fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.sinks = nil
	return errors.Join(errs...)
}

// Ring is a fixed-size sample FIFO shared between the emulation thread
// and an audio device callback. Overflow drops the oldest samples;
// underflow pads with the last sample.
type Ring struct {
	mu    sync.Mutex
	buf   []int16
	head  int
	count int
	last  int16
}

// NewRing creates a ring holding up to size samples
func NewRing(size int) *Ring {
	return &Ring{buf: make([]int16, size)}
}

// Push appends samples
func (r *Ring) Push(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.buf)
	for _, s := range samples {
		r.buf[(r.head+r.count)%n] = s
		if r.count < n {
			r.count++
		} else {
			r.head = (r.head + 1) % n
		}
	}
}

// Pop fills out and returns how many real samples were available
func (r *Ring) Pop(out []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.buf)
	got := 0
	for i := range out {
		if r.count == 0 {
			out[i] = r.last
			continue
		}
		out[i] = r.buf[r.head]
		r.last = out[i]
		r.head = (r.head + 1) % n
		r.count--
		got++
	}
	return got
}

// Len returns the number of buffered samples
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
