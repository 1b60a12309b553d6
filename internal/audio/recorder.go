package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder writes sample batches to a 16-bit mono WAV file
type Recorder struct {
	file    *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	samples int
}

// NewRecorder creates the WAV file at path
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return &Recorder{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends a batch
func (r *Recorder) Write(samples []int16) error {
	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	r.samples += len(samples)
	return nil
}

// Samples returns the number of samples recorded
func (r *Recorder) Samples() int {
	return r.samples
}

// Close finalises the WAV header and closes the file
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.enc.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.file = nil
	return err
}
