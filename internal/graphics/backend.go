// Package graphics provides the presentation backends that turn published
// frames into pixels on a window, a terminal or disk.
package graphics

import (
	"fmt"

	"nescore/internal/input"
)

// Frame dimensions
const (
	Width  = 256
	Height = 240
)

// Frame is an RGB frame, one 0x00RRGGBB value per pixel
type Frame [Width * Height]uint32

// Backend represents a presentation backend
type Backend interface {
	// Initialize initializes the backend
	Initialize(config Config) error

	// CreateWindow creates the rendering surface
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if nothing is shown to the user
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering surface
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// PollEvents returns the input events collected since the last call
	PollEvents() []InputEvent

	// RenderFrame presents an RGB frame
	RenderFrame(frame *Frame) error

	// Run drives the presentation loop, calling update once per tick
	// until the window closes or update returns an error
	Run(update func() error) error

	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool
	FrameRate    int

	Filter  string // "nearest", "linear"
	ShowFPS bool

	// PauseOnFocusLoss stops ticking while the window is unfocused
	PauseOnFocusLoss bool

	// Keys maps controller buttons to key names
	Keys map[input.Button]string

	// Headless frame dumping
	OutputDir    string
	DumpInterval int
	MaxFrames    int

	Headless bool
	Debug    bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeButton InputEventType = iota
	InputEventTypeCommand
	InputEventTypeQuit
)

// Command is a host action bound to a key
type Command int

const (
	CommandNone Command = iota
	CommandPause
	CommandReset
	CommandScreenshot
)

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Button  input.Button
	Command Command
	Pressed bool
}

// BackendType names a backend in configuration
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}

// DefaultKeys returns the player 1 key bindings used when none are configured
func DefaultKeys() map[input.Button]string {
	return map[input.Button]string{
		input.ButtonUp:     "W",
		input.ButtonDown:   "S",
		input.ButtonLeft:   "A",
		input.ButtonRight:  "D",
		input.ButtonA:      "J",
		input.ButtonB:      "K",
		input.ButtonStart:  "Enter",
		input.ButtonSelect: "Space",
	}
}

// ButtonState folds a stream of button events into a controller byte
func ButtonState(state uint8, events []InputEvent) uint8 {
	for _, ev := range events {
		if ev.Type != InputEventTypeButton {
			continue
		}
		if ev.Pressed {
			state |= uint8(ev.Button)
		} else {
			state &^= uint8(ev.Button)
		}
	}
	return state
}
