//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// ButtonDebounce filters contact bounce on the panel buttons.
const ButtonDebounce = 20 * time.Millisecond

// RealHeater drives the relay line. Active high: 1 closes the relay.
type RealHeater struct {
	line *gpiocdev.Line
}

// NewRealHeater requests pin on chip as an output, initially off.
func NewRealHeater(chip string, pin int) (*RealHeater, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("mash-heater"))
	if err != nil {
		return nil, fmt.Errorf("request heater pin %d: %w", pin, err)
	}
	return &RealHeater{line: line}, nil
}

func (h *RealHeater) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := h.line.SetValue(v); err != nil {
		return fmt.Errorf("set heater %d: %w", v, err)
	}
	return nil
}

// Close turns the relay off and releases the line as an input, matching boot defaults.
func (h *RealHeater) Close() error {
	var errs []error
	if err := h.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("heater off: %w", err))
	}
	if err := h.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure heater pin: %w", err))
	}
	if err := h.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close heater pin: %w", err))
	}
	return errors.Join(errs...)
}

// RealButtons watches the panel buttons. They are wired to ground with the
// internal pull-up enabled, so a falling edge is a press.
type RealButtons struct {
	lines *gpiocdev.Lines
}

// NewRealButtons requests pins on chip and calls emit for every edge.
// emit runs on the gpiocdev event goroutine.
func NewRealButtons(chip string, pins []int, emit func(Edge)) (*RealButtons, error) {
	handler := func(evt gpiocdev.LineEvent) {
		n := buttonIndex(pins, evt.Offset)
		if n == 0 {
			return
		}
		emit(Edge{Button: n, Down: evt.Type == gpiocdev.LineEventFallingEdge})
	}
	lines, err := gpiocdev.RequestLines(chip, pins,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(ButtonDebounce),
		gpiocdev.WithEventHandler(handler),
		gpiocdev.WithConsumer("mash-buttons"),
	)
	if err != nil {
		return nil, fmt.Errorf("request button pins %v: %w", pins, err)
	}
	return &RealButtons{lines: lines}, nil
}

func (b *RealButtons) Close() error {
	if err := b.lines.Close(); err != nil {
		return fmt.Errorf("close button pins: %w", err)
	}
	return nil
}
