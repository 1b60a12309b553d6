// Package input implements the standard controller ports at $4016/$4017.
package input

import (
	"log"
	"strings"
)

// Button is one bit of the controller byte, in shift-out order
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

func (b Button) String() string {
	var names []string
	for i, name := range buttonNames {
		if b&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// ParseButton returns the button with the given name, as used in key
// binding configuration
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(1 << i), true
		}
	}
	return 0, false
}

// Controller represents a NES controller
type Controller struct {
	buttons uint8
	shift   uint8
	strobe  bool
	reads   uint8

	debugEnabled bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetState replaces the whole button byte (bit 0 A ... bit 7 Right)
func (c *Controller) SetState(buttons uint8) {
	if c.debugEnabled && buttons != c.buttons {
		log.Printf("[INPUT] buttons $%02X -> $%02X (%s)", c.buttons, buttons, Button(buttons))
	}
	c.buttons = buttons
	if c.strobe {
		c.shift = buttons
	}
}

// State returns the current button byte
func (c *Controller) State() uint8 {
	return c.buttons
}

// SetButton presses or releases one button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.SetState(c.buttons | uint8(button))
	} else {
		c.SetState(c.buttons &^ uint8(button))
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles the strobe bit. While strobe is high the shift register
// keeps reloading; the falling edge latches the buttons for reading.
func (c *Controller) Write(value uint8) {
	c.strobe = value&0x01 != 0
	if c.strobe {
		c.shift = c.buttons
		c.reads = 0
	}
}

// Read shifts out the next button bit. After eight reads an official
// controller returns 1.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 0x01
	}
	if c.reads >= 8 {
		return 0x01
	}
	bit := c.shift & 0x01
	c.shift >>= 1
	c.reads++
	return bit
}

// Reset releases every button and clears the strobe
func (c *Controller) Reset() {
	c.buttons = 0
	c.shift = 0
	c.strobe = false
	c.reads = 0
}

// EnableDebug enables debug logging for this controller
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}

// Ports is the pair of controller ports on the CPU bus
type Ports struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewPorts creates two unplugged-idle controllers
func NewPorts() *Ports {
	return &Ports{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers
func (p *Ports) Reset() {
	p.Controller1.Reset()
	p.Controller2.Reset()
}

// EnableDebug enables debug logging for both controllers
func (p *Ports) EnableDebug(enable bool) {
	p.Controller1.EnableDebug(enable)
	p.Controller2.EnableDebug(enable)
}

// Read reads the serial data bit of a port. The upper bits are open bus
// and supplied by the CPU bus.
func (p *Ports) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return p.Controller1.Read()
	case 0x4017:
		return p.Controller2.Read()
	}
	return 0
}

// Write strobes both controllers through $4016
func (p *Ports) Write(address uint16, value uint8) {
	if address == 0x4016 {
		p.Controller1.Write(value)
		p.Controller2.Write(value)
	}
}
