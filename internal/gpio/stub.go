//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealHeater is not available on non-Linux platforms.
type RealHeater struct{}

// NewRealHeater returns an error on non-Linux platforms.
func NewRealHeater(string, int) (*RealHeater, error) { return nil, errUnsupported }

func (h *RealHeater) Set(bool) error { return errUnsupported }
func (h *RealHeater) Close() error   { return nil }

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(string, []int, func(Edge)) (*RealButtons, error) { return nil, errUnsupported }

func (b *RealButtons) Close() error { return nil }
