package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CommandKind identifies an operator command.
type CommandKind int

const (
	CmdSet CommandKind = iota + 1
	CmdRun
	CmdIdle
	CmdAllStop
	CmdList
	CmdHeartbeat
)

func (k CommandKind) String() string {
	switch k {
	case CmdSet:
		return "set"
	case CmdRun:
		return "run"
	case CmdIdle:
		return "idle"
	case CmdAllStop:
		return "allstop"
	case CmdList:
		return "list"
	case CmdHeartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one parsed line from the operator.
type Command struct {
	Kind        CommandKind
	Temperature float64 // set
	PresetID    string  // run
	Raw         string  // trimmed input line; heartbeats are echoed verbatim
}

var (
	ErrEmptyCommand     = errors.New("empty command")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
)

// ParseCommand decodes one line of the operator protocol:
//
//	set <celsius>
//	run "<preset id>"
//	idle | allstop | list
//	heartbeat [anything]
func ParseCommand(line string) (Command, error) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return Command{}, ErrEmptyCommand
	}
	// heartbeats carry an opaque payload the GUI expects back untouched
	if strings.HasPrefix(raw, "heartbeat") {
		return Command{Kind: CmdHeartbeat, Raw: raw}, nil
	}

	args, err := tokenize(raw)
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Raw: raw}

	switch args[0] {
	case "set":
		if len(args) != 2 {
			return Command{}, fmt.Errorf("%w: usage: set <celsius>", ErrMalformedCommand)
		}
		t, err := strconv.ParseFloat(args[1], 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return Command{}, fmt.Errorf("%w: bad temperature %q", ErrMalformedCommand, args[1])
		}
		cmd.Kind, cmd.Temperature = CmdSet, t
	case "run":
		if len(args) != 2 || args[1] == "" {
			return Command{}, fmt.Errorf("%w: usage: run \"<preset>\"", ErrMalformedCommand)
		}
		cmd.Kind, cmd.PresetID = CmdRun, args[1]
	case "idle":
		cmd.Kind = CmdIdle
	case "allstop":
		cmd.Kind = CmdAllStop
	case "list":
		cmd.Kind = CmdList
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
	if cmd.Kind != CmdSet && cmd.Kind != CmdRun && len(args) != 1 {
		return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrMalformedCommand, args[0])
	}
	return cmd, nil
}

// tokenize splits s on blanks, treating Go-style double-quoted strings as single tokens.
func tokenize(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out, nil
		}
		if s[0] == '"' {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated quote", ErrMalformedCommand)
			}
			v, err := strconv.Unquote(q)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
			}
			out = append(out, v)
			s = s[len(q):]
			continue
		}
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return append(out, s), nil
		}
		out = append(out, s[:end])
		s = s[end:]
	}
}
