package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player plays sample batches through the system audio device. The device
// pulls from a ring buffer so the emulation thread never blocks on it.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	ring   *Ring
	volume float64

	scratch []int16
	mu      sync.Mutex
	started bool
}

// NewPlayer opens the audio device for 16-bit mono output
func NewPlayer(sampleRate int, volume float64) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	p := &Player{
		ctx:    ctx,
		ring:   NewRing(sampleRate / 4),
		volume: volume,
	}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read implements io.Reader for the device
func (p *Player) Read(b []byte) (int, error) {
	n := len(b) / 2
	if cap(p.scratch) < n {
		p.scratch = make([]int16, n)
	}
	samples := p.scratch[:n]
	p.ring.Pop(samples)
	for i, s := range samples {
		b[2*i] = uint8(s)
		b[2*i+1] = uint8(uint16(s) >> 8)
	}
	return n * 2, nil
}

// Write queues a batch and starts playback on first use
func (p *Player) Write(samples []int16) error {
	p.ring.Push(samples)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.player.SetVolume(p.volume)
		p.player.Play()
		p.started = true
	}
	return nil
}

// Close stops playback
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}
