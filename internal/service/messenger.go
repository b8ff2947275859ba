package service

import (
	"io"
	"strconv"
	"sync"

	"mash_controller/internal/logger"
)

// LineMessenger writes protocol lines to the operator channel.
// Safe for concurrent use: the control loop and the button watcher share it.
type LineMessenger struct {
	mu  sync.Mutex
	w   io.Writer
	log *logger.Logger
}

func NewLineMessenger(w io.Writer, log *logger.Logger) *LineMessenger {
	return &LineMessenger{w: w, log: log}
}

// Send writes msg followed by a newline. A vanished reader is logged, not fatal.
func (m *LineMessenger) Send(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := io.WriteString(m.w, msg+"\n"); err != nil {
		m.log.Debugw("operator_write_failed", "message", msg, "error", err)
	}
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
