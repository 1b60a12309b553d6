package graphics

import (
	"fmt"
	"log"
	"path/filepath"
)

// HeadlessBackend renders nowhere, optionally dumping frames as PNG files
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow counts frames and writes every DumpInterval-th one to
// OutputDir
type HeadlessWindow struct {
	config     Config
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	dumped     []string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless window
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	return &HeadlessWindow{
		config:  b.config,
		title:   title,
		width:   width,
		height:  height,
		running: true,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle records the title
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns the nominal window size
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose reports true once MaxFrames frames have been rendered
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns no events
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame counts the frame and dumps it when due
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	w.frameCount++
	if w.config.MaxFrames > 0 && w.frameCount >= w.config.MaxFrames {
		w.running = false
	}
	if w.config.OutputDir == "" || w.config.DumpInterval <= 0 || w.frameCount%w.config.DumpInterval != 0 {
		return nil
	}

	path := filepath.Join(w.config.OutputDir, fmt.Sprintf("frame_%06d.png", w.frameCount))
	if err := SavePNG(path, frame, 1, w.config.Filter); err != nil {
		return err
	}
	w.dumped = append(w.dumped, path)
	if w.config.Debug {
		log.Printf("[HEADLESS] wrote %s", path)
	}
	return nil
}

// Run calls update as fast as possible until the window closes
func (w *HeadlessWindow) Run(update func() error) error {
	for w.running {
		if err := update(); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup stops the window
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// FrameCount returns the number of frames rendered
func (w *HeadlessWindow) FrameCount() int {
	return w.frameCount
}

// Dumped returns the paths of the frames written so far
func (w *HeadlessWindow) Dumped() []string {
	return w.dumped
}
