package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is one rover instruction. The set is closed: Move, TurnLeft and
// TurnRight.
type Command uint8

const (
	Move Command = iota + 1
	TurnLeft
	TurnRight
)

// Commands lists every valid command
var Commands = []Command{Move, TurnLeft, TurnRight}

// ParseCommand maps a command letter (M, L or R, any case) to its Command
func ParseCommand(r rune) (Command, error) {
	switch unicode.ToUpper(r) {
	case 'M':
		return Move, nil
	case 'L':
		return TurnLeft, nil
	case 'R':
		return TurnRight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, r)
}

// Letter returns the single-letter form of the command
func (c Command) Letter() byte {
	switch c {
	case Move:
		return 'M'
	case TurnLeft:
		return 'L'
	case TurnRight:
		return 'R'
	}
	return '?'
}

func (c Command) String() string {
	return string(c.Letter())
}

// Valid reports whether c is a known command
func (c Command) Valid() bool {
	return c == Move || c == TurnLeft || c == TurnRight
}

func (c Command) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(c))
	}
	return []byte{c.Letter()}, nil
}

func (c *Command) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if len([]rune(s)) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	parsed, err := ParseCommand([]rune(s)[0])
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Apply executes cmd against the rover
func Apply(cmd Command, r *Rover) error {
	switch cmd {
	case Move:
		r.Move()
	case TurnLeft:
		r.TurnLeft()
	case TurnRight:
		r.TurnRight()
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(cmd))
	}
	return nil
}

// Replay applies cmds in order and records one step per command. Replay
// stops at the first unknown command and returns the steps taken so far.
func Replay(r *Rover, cmds []Command) ([]Step, error) {
	steps := make([]Step, 0, len(cmds))
	for i, cmd := range cmds {
		step, err := applyStep(r, cmd, i+1)
		if err != nil {
			return steps, fmt.Errorf("command %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func applyStep(r *Rover, cmd Command, index int) (Step, error) {
	from := r.State()
	if err := Apply(cmd, r); err != nil {
		return Step{}, err
	}
	to := r.State()
	return Step{
		Index:     index,
		Command:   cmd,
		From:      from,
		To:        to,
		Blocked:   cmd == Move && from == to,
		Timestamp: time.Now().Unix(),
	}, nil
}

// FormatCommands renders commands in their compact letter form
func FormatCommands(cmds []Command) string {
	var b strings.Builder
	b.Grow(len(cmds))
	for _, c := range cmds {
		b.WriteByte(c.Letter())
	}
	return b.String()
}
