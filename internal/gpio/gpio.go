// Package gpio drives the heater relay and watches the front-panel buttons.
// The real implementation uses the Linux GPIO character device; the fakes
// allow running and testing without hardware.
package gpio

import "fmt"

// Heater switches the heating element.
type Heater interface {
	Set(on bool) error
	Close() error
}

// Buttons delivers front-panel edges until closed.
type Buttons interface {
	Close() error
}

// Edge is one button transition.
type Edge struct {
	Button int // 1-based position in the configured pin list
	Down   bool
}

// Message renders e in the operator line protocol, e.g. "button 2 down".
func (e Edge) Message() string {
	state := "up"
	if e.Down {
		state = "down"
	}
	return fmt.Sprintf("button %d %s", e.Button, state)
}

// Pin definitions (BCM numbering)
const (
	DefaultChip      = "gpiochip0"
	DefaultHeaterPin = 24
)

// DefaultButtonPins are the four front-panel buttons, in panel order.
var DefaultButtonPins = []int{17, 22, 23, 27}

// buttonIndex maps a line offset back to its 1-based button number, or 0.
func buttonIndex(pins []int, offset int) int {
	for i, p := range pins {
		if p == offset {
			return i + 1
		}
	}
	return 0
}
