package gpio

import "sync"

// FakeHeater records every Set call. It is used when gpio.enabled is false
// and by tests.
type FakeHeater struct {
	mu     sync.Mutex
	On     bool
	Calls  []bool
	Closed bool

	// SetError, if set, is returned by Set and leaves On unchanged.
	SetError error
}

func NewFakeHeater() *FakeHeater { return &FakeHeater{} }

func (f *FakeHeater) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, on)
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	return nil
}

func (f *FakeHeater) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.On = false
	f.Closed = true
	return nil
}

// IsOn reports the last successfully set state.
func (f *FakeHeater) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.On
}

// History returns a copy of every requested state.
func (f *FakeHeater) History() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.Calls...)
}

// FakeButtons lets tests press buttons by pin offset.
type FakeButtons struct {
	pins   []int
	emit   func(Edge)
	Closed bool
}

func NewFakeButtons(pins []int, emit func(Edge)) *FakeButtons {
	return &FakeButtons{pins: pins, emit: emit}
}

// Press emits a down edge followed by an up edge for the button on pin.
func (f *FakeButtons) Press(pin int) {
	f.Edge(pin, true)
	f.Edge(pin, false)
}

// Edge emits a single transition for pin; unknown pins are ignored like on hardware.
func (f *FakeButtons) Edge(pin int, down bool) {
	if n := buttonIndex(f.pins, pin); n != 0 && f.emit != nil {
		f.emit(Edge{Button: n, Down: down})
	}
}

func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}
