package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

type countingSink struct {
	batches int
	closed  bool
	err     error
}

func (s *countingSink) Write(samples []int16) error {
	s.batches++
	return s.err
}

func (s *countingSink) Close() error {
	s.closed = true
	return nil
}

func TestFanout(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{err: errors.New("full")}
	f := NewFanout(a)
	f.Add(b)

	err := f.Write([]int16{1, 2, 3})
	if a.batches != 1 || b.batches != 1 {
		t.Error("batch not delivered to every sink")
	}
	if err == nil || err.Error() != "full" {
		t.Errorf("error = %v", err)
	}
	if err := f.Close(); err != nil || !a.closed || !b.closed {
		t.Error("sinks not closed")
	}
}

func TestRing(t *testing.T) {
	r := NewRing(4)
	r.Push([]int16{1, 2, 3})
	out := make([]int16, 2)
	if n := r.Pop(out); n != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("Pop = %d %v", n, out)
	}

	// Overflow drops the oldest
	r.Push([]int16{4, 5, 6, 7})
	out = make([]int16, 6)
	n := r.Pop(out)
	want := []int16{4, 5, 6, 7, 7, 7}
	if n != 4 {
		t.Errorf("Pop returned %d real samples, want 4", n)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
	if r.Len() != 0 {
		t.Error("ring not drained")
	}
}

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := NewRecorder(path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := rec.Write([]int16{0, 1000, -1000, 32767, -32768}); err != nil {
			t.Fatal(err)
		}
	}
	if rec.Samples() != 15 {
		t.Errorf("Samples = %d", rec.Samples())
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 44100 || dec.BitDepth != 16 || dec.NumChans != 1 {
		t.Errorf("format %d Hz %d bit %d ch", dec.SampleRate, dec.BitDepth, dec.NumChans)
	}
	if len(buf.Data) != 15 || buf.Data[3] != 32767 || buf.Data[4] != -32768 {
		t.Errorf("decoded %v", buf.Data)
	}
}
