package app

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"nescore/internal/bus"
	"nescore/internal/ppu"
)

// batchesPerFrame is how often the pause flag is polled within a frame
const batchesPerFrame = 8

// audioQueueDepth is the number of sample batches buffered for the consumer
const audioQueueDepth = 16

// WorkerStats is a snapshot of worker counters
type WorkerStats struct {
	Frames       uint64
	Cycles       uint64
	DroppedAudio uint64
	Paused       bool
	Running      bool
}

// Worker runs the machine on its own goroutine at a fixed frame rate.
// Only the latest frame, audio batches and the input byte cross the
// goroutine boundary; the machine itself is touched by the worker alone
// once Start has been called.
type Worker struct {
	machine *bus.Bus
	saves   *SaveManager
	period  time.Duration

	mu       sync.Mutex
	frame    [ppu.FrameSize]uint8
	frameSeq uint64

	audio   chan []int16
	dropped atomic.Uint64

	input  atomic.Uint32
	paused atomic.Bool
	reset  atomic.Bool

	frames  atomic.Uint64
	cycles  atomic.Uint64
	running atomic.Bool

	onFrame func(seq uint64)

	stop chan struct{}
	done chan struct{}

	debug bool
}

// NewWorker wires the machine's frame and audio callbacks to the worker
func NewWorker(machine *bus.Bus, frameRate float64, saves *SaveManager) *Worker {
	if frameRate <= 0 {
		frameRate = 60
	}
	w := &Worker{
		machine: machine,
		saves:   saves,
		period:  time.Duration(float64(time.Second) / frameRate),
		audio:   make(chan []int16, audioQueueDepth),
	}
	machine.SetFrameCallback(w.publishFrame)
	machine.SetAudioCallback(w.publishAudio)
	return w
}

// EnableDebug toggles worker logging
func (w *Worker) EnableDebug(enable bool) {
	w.debug = enable
}

// OnFrame registers a hook called on the worker goroutine after each
// published frame
func (w *Worker) OnFrame(fn func(seq uint64)) {
	w.onFrame = fn
}

// Start launches the worker goroutine
func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop()
	if w.debug {
		log.Printf("[WORKER] started, period %v", w.period)
	}
}

// Stop asks the worker to exit and waits for it
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stop)
	<-w.done
	if w.debug {
		log.Printf("[WORKER] stopped after %d frames", w.frames.Load())
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case now := <-ticker.C:
			w.Step()
			if w.saves != nil {
				if err := w.saves.MaybeSync(now); err != nil {
					log.Printf("[WORKER] %v", err)
				}
			}
		}
	}
}

// Step advances the machine by one frame unless paused. It returns false
// when the frame did not complete. Callers other than the worker goroutine
// may use it only while the worker is stopped.
func (w *Worker) Step() bool {
	if w.reset.Swap(false) {
		w.machine.Reset()
	}
	w.machine.SetInput(uint8(w.input.Load()))

	start := w.machine.FrameCount()
	for w.machine.FrameCount() == start {
		if w.paused.Load() {
			return false
		}
		w.cycles.Add(uint64(w.machine.RunCycles(bus.CyclesPerFrame / batchesPerFrame)))
	}
	return true
}

func (w *Worker) publishFrame(frame *[ppu.FrameSize]uint8) {
	w.mu.Lock()
	w.frame = *frame
	w.frameSeq++
	seq := w.frameSeq
	w.mu.Unlock()

	w.frames.Add(1)
	if w.onFrame != nil {
		w.onFrame(seq)
	}
}

func (w *Worker) publishAudio(samples []int16) {
	select {
	case w.audio <- samples:
	default:
		w.dropped.Add(1)
	}
}

// Frame copies the latest frame into dst when it is newer than seen and
// returns its sequence number
func (w *Worker) Frame(dst *[ppu.FrameSize]uint8, seen uint64) (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frameSeq == seen {
		return seen, false
	}
	*dst = w.frame
	return w.frameSeq, true
}

// Audio returns the channel of sample batches. Batches are dropped when
// the consumer falls behind.
func (w *Worker) Audio() <-chan []int16 {
	return w.audio
}

// SetInput publishes the controller 1 byte for the next frame
func (w *Worker) SetInput(buttons uint8) {
	w.input.Store(uint32(buttons))
}

// Input returns the last published controller byte
func (w *Worker) Input() uint8 {
	return uint8(w.input.Load())
}

// Pause stops emulation at the next cycle batch
func (w *Worker) Pause() {
	w.paused.Store(true)
}

// Resume continues emulation
func (w *Worker) Resume() {
	w.paused.Store(false)
}

// TogglePause flips the pause flag and returns the new state
func (w *Worker) TogglePause() bool {
	for {
		old := w.paused.Load()
		if w.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsPaused reports the pause flag
func (w *Worker) IsPaused() bool {
	return w.paused.Load()
}

// RequestReset resets the machine before the next frame
func (w *Worker) RequestReset() {
	w.reset.Store(true)
}

// Stats returns a snapshot of the worker counters
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Frames:       w.frames.Load(),
		Cycles:       w.cycles.Load(),
		DroppedAudio: w.dropped.Load(),
		Paused:       w.paused.Load(),
		Running:      w.running.Load(),
	}
}
