package graphics

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"nescore/internal/input"
)

// keyHold is how long a terminal key counts as held; terminals only report
// presses
const keyHold = 150 * time.Millisecond

// TerminalBackend renders frames with ANSI true colour half blocks
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws into a terminal and reads raw keyboard input
type TerminalWindow struct {
	config  Config
	title   string
	width   int
	height  int
	out     io.Writer
	size    func() (int, int, error)
	buf     bytes.Buffer
	running bool

	fd       int
	oldState *term.State
	keys     chan byte
	keyMap   map[byte]input.Button
	held     map[input.Button]time.Time
	now      func() time.Time
	stopOnce sync.Once
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow puts stdin in raw mode when it is a terminal and starts
// reading keys
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	w := newTerminalWindow(b.config, os.Stdout)
	w.title = title
	w.width = width
	w.height = height
	w.fd = int(os.Stdin.Fd())
	w.size = func() (int, int, error) { return term.GetSize(int(os.Stdout.Fd())) }

	if term.IsTerminal(w.fd) {
		state, err := term.MakeRaw(w.fd)
		if err != nil {
			return nil, fmt.Errorf("failed to set raw mode: %w", err)
		}
		w.oldState = state
		go w.readKeys(os.Stdin)
	}
	fmt.Fprint(w.out, "\033[?25l\033[2J")
	return w, nil
}

func newTerminalWindow(config Config, out io.Writer) *TerminalWindow {
	keys := config.Keys
	if keys == nil {
		keys = DefaultKeys()
	}
	return &TerminalWindow{
		config:  config,
		out:     out,
		size:    func() (int, int, error) { return 80, 25, nil },
		running: true,
		fd:      -1,
		keys:    make(chan byte, 64),
		keyMap:  terminalKeyMap(keys),
		held:    make(map[input.Button]time.Time),
		now:     time.Now,
	}
}

// terminalKeyMap resolves key names to the bytes a raw terminal sends.
// Arrow keys arrive as ESC [ A-D and are folded to 'A'-'D' | 0x80.
func terminalKeyMap(keys map[input.Button]string) map[byte]input.Button {
	m := make(map[byte]input.Button)
	for button, name := range keys {
		var c byte
		switch strings.ToLower(name) {
		case "enter", "return":
			c = '\r'
		case "space":
			c = ' '
		case "tab":
			c = '\t'
		case "up", "arrowup":
			c = 'A' | 0x80
		case "down", "arrowdown":
			c = 'B' | 0x80
		case "right", "arrowright":
			c = 'C' | 0x80
		case "left", "arrowleft":
			c = 'D' | 0x80
		default:
			if len(name) != 1 {
				continue
			}
			c = strings.ToLower(name)[0]
		}
		m[c] = button
	}
	return m
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

func (w *TerminalWindow) readKeys(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		c, err := br.ReadByte()
		if err != nil {
			return
		}
		if c == 0x1B {
			if next, err := br.ReadByte(); err == nil && next == '[' {
				if arrow, err := br.ReadByte(); err == nil {
					c = arrow | 0x80
				}
			}
		}
		select {
		case w.keys <- c:
		default:
		}
	}
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns the nominal window size
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true after quit was requested
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents turns pending key bytes into events. Buttons are released
// once keyHold has passed without a repeat.
func (w *TerminalWindow) PollEvents() []InputEvent {
	var events []InputEvent
	now := w.now()

drain:
	for {
		select {
		case c := <-w.keys:
			events = w.key(c, now, events)
		default:
			break drain
		}
	}

	for button, until := range w.held {
		if now.After(until) {
			delete(w.held, button)
			events = append(events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: false})
		}
	}
	return events
}

func (w *TerminalWindow) key(c byte, now time.Time, events []InputEvent) []InputEvent {
	switch c {
	case 0x03, 'q':
		w.running = false
		return append(events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	case 'p':
		return append(events, InputEvent{Type: InputEventTypeCommand, Command: CommandPause, Pressed: true})
	case 'r':
		return append(events, InputEvent{Type: InputEventTypeCommand, Command: CommandReset, Pressed: true})
	}
	button, ok := w.keyMap[c]
	if !ok {
		return events
	}
	if _, down := w.held[button]; !down {
		events = append(events, InputEvent{Type: InputEventTypeButton, Button: button, Pressed: true})
	}
	w.held[button] = now.Add(keyHold)
	return events
}

// RenderFrame draws the frame scaled to the terminal, two pixel rows per
// character cell
func (w *TerminalWindow) RenderFrame(frame *Frame) error {
	cols, rows, err := w.size()
	if err != nil || cols <= 0 || rows <= 1 {
		cols, rows = 80, 25
	}
	if cols > Width {
		cols = Width
	}
	rows--
	if rows > Height/2 {
		rows = Height / 2
	}

	w.buf.Reset()
	w.buf.WriteString("\033[H")
	for row := 0; row < rows; row++ {
		top := row * 2 * Height / (rows * 2)
		bottom := (row*2 + 1) * Height / (rows * 2)
		for col := 0; col < cols; col++ {
			x := col * Width / cols
			t := frame[top*Width+x]
			b := frame[bottom*Width+x]
			fmt.Fprintf(&w.buf, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				t>>16&0xFF, t>>8&0xFF, t&0xFF, b>>16&0xFF, b>>8&0xFF, b&0xFF)
		}
		w.buf.WriteString("\033[0m\r\n")
	}
	_, err = w.out.Write(w.buf.Bytes())
	return err
}

// Run calls update at the configured frame rate until quit
func (w *TerminalWindow) Run(update func() error) error {
	rate := w.config.FrameRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for w.running {
		if err := update(); err != nil {
			return err
		}
		<-ticker.C
	}
	return nil
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	var err error
	w.stopOnce.Do(func() {
		fmt.Fprint(w.out, "\033[0m\033[?25h\r\n")
		if w.oldState != nil {
			err = term.Restore(w.fd, w.oldState)
		}
	})
	return err
}
