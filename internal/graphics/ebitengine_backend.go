//go:build !headless
// +build !headless

package graphics

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"nescore/internal/input"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *EbitengineGame
	running bool
	events  []InputEvent
	update  func() error
}

// EbitengineGame implements ebiten.Game
type EbitengineGame struct {
	window     *EbitengineWindow
	frameImage *ebiten.Image
	pixels     *image.RGBA
	filter     ebiten.Filter
	showFPS    bool

	windowWidth  int
	windowHeight int

	buttons  map[ebiten.Key]input.Button
	commands map[ebiten.Key]Command
}

// keyNames resolves configuration key names
var keyNames = map[string]ebiten.Key{
	"enter": ebiten.KeyEnter, "return": ebiten.KeyEnter,
	"space": ebiten.KeySpace, "tab": ebiten.KeyTab,
	"backspace": ebiten.KeyBackspace,
	"up": ebiten.KeyArrowUp, "down": ebiten.KeyArrowDown,
	"left": ebiten.KeyArrowLeft, "right": ebiten.KeyArrowRight,
	"lshift": ebiten.KeyShiftLeft, "rshift": ebiten.KeyShiftRight,
	"lctrl": ebiten.KeyControlLeft, "rctrl": ebiten.KeyControlRight,
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		keyNames[string(c)] = ebiten.KeyA + ebiten.Key(c-'a')
	}
	for c := '0'; c <= '9'; c++ {
		keyNames[string(c)] = ebiten.Key0 + ebiten.Key(c-'0')
	}
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow configures the Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	keys := b.config.Keys
	if keys == nil {
		keys = DefaultKeys()
	}
	buttons := make(map[ebiten.Key]input.Button)
	for button, name := range keys {
		key, ok := keyNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown key %q bound to %v", name, button)
		}
		buttons[key] = button
	}

	game := &EbitengineGame{
		frameImage:   ebiten.NewImage(Width, Height),
		pixels:       image.NewRGBA(image.Rect(0, 0, Width, Height)),
		filter:       ebiten.FilterNearest,
		showFPS:      b.config.ShowFPS,
		windowWidth:  width,
		windowHeight: height,
		buttons:      buttons,
		commands: map[ebiten.Key]Command{
			ebiten.KeyP:   CommandPause,
			ebiten.KeyF1:  CommandReset,
			ebiten.KeyF12: CommandScreenshot,
		},
	}
	if b.config.Filter == "linear" {
		game.filter = ebiten.FilterLinear
	}

	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetRunnableOnUnfocused(!b.config.PauseOnFocusLoss)
	if b.config.FrameRate > 0 {
		ebiten.SetTPS(b.config.FrameRate)
	}
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns and clears the collected events
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads an RGB frame to the frame texture
func (w *EbitengineWindow) RenderFrame(frame *Frame) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	FillImage(w.game.pixels, frame)
	w.game.frameImage.WritePixels(w.game.pixels.Pix)
	return nil
}

// Run starts the Ebitengine game loop; update is called once per tick
func (w *EbitengineWindow) Run(update func() error) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.update = update
	err := ebiten.RunGame(w.game)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Update implements ebiten.Game
func (g *EbitengineGame) Update() error {
	if !g.window.running {
		return ebiten.Termination
	}
	g.processInput()
	if g.window.update != nil {
		if err := g.window.update(); err != nil {
			log.Printf("[EBITEN] update failed: %v", err)
			return err
		}
	}
	return nil
}

// Draw implements ebiten.Game
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 0xFF})

	scale := float64(g.windowWidth) / Width
	if s := float64(g.windowHeight) / Height; s < scale {
		scale = s
	}
	op := &ebiten.DrawImageOptions{Filter: g.filter}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(g.windowWidth)-Width*scale)/2, (float64(g.windowHeight)-Height*scale)/2)
	screen.DrawImage(g.frameImage, op)

	if g.showFPS {
		text.Draw(screen, fmt.Sprintf("FPS %.1f", ebiten.ActualFPS()), basicfont.Face7x13, 6, 16, color.White)
	}
}

// Layout implements ebiten.Game
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

func (g *EbitengineGame) processInput() {
	w := g.window
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.running = false
		w.events = append(w.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
		return
	}
	for key, button := range g.buttons {
		switch {
		case inpututil.IsKeyJustPressed(key):
			w.events = append(w.events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: true})
		case inpututil.IsKeyJustReleased(key):
			w.events = append(w.events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: false})
		}
	}
	for key, cmd := range g.commands {
		if inpututil.IsKeyJustPressed(key) {
			w.events = append(w.events, InputEvent{Type: InputEventTypeCommand, Command: cmd, Pressed: true})
		}
	}
}
