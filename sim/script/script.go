// Package script parses rover command scripts.
//
// A script is a sequence of command letters (M, L, R in any case) separated
// by optional whitespace or commas. Any item may carry a repeat count, and
// parentheses group items:
//
//	MMRMLMMR
//	M, M, R, M
//	3M R 2(ML)
package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

// MaxCommands caps the length of an expanded script
const MaxCommands = 10000

var (
	ErrEmptyScript   = errors.New("script contains no commands")
	ErrScriptTooLong = fmt.Errorf("script expands to more than %d commands", MaxCommands)
)

type Script struct {
	Items []*Item `parser:"@@*"`
}

type Item struct {
	Pos     lexer.Position
	Count   *int    `parser:"@Count?"`
	Command string  `parser:"( @Command"`
	Group   *Script `parser:"| '(' @@ ')' )"`
}

var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Count", Pattern: `[0-9]+`},
	{Name: "Command", Pattern: `[MmLlRr]`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Whitespace", Pattern: `[\s,;]+`},
})

var parser = participle.MustBuild[Script](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace"),
)

// Parse builds the syntax tree for src without expanding it
func Parse(src string) (*Script, error) {
	s, err := parser.ParseString("script", src)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return s, nil
}

// Compile parses and expands src into a flat command list. Blank scripts
// compile to an empty list.
func Compile(src string) ([]engine.Command, error) {
	if strings.Trim(src, " \t\r\n,;") == "" {
		return []engine.Command{}, nil
	}
	s, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return s.Expand()
}

// MustCompile is like Compile but panics on error
func MustCompile(src string) []engine.Command {
	cmds, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return cmds
}

// Expand flattens the script, applying repeat counts
func (s *Script) Expand() ([]engine.Command, error) {
	out := make([]engine.Command, 0, len(s.Items))
	if err := s.expandInto(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Script) expandInto(out *[]engine.Command) error {
	for _, item := range s.Items {
		count := 1
		if item.Count != nil {
			count = *item.Count
		}

		var unit []engine.Command
		if item.Group != nil {
			sub, err := item.Group.Expand()
			if err != nil {
				return err
			}
			unit = sub
		} else {
			cmd, err := engine.ParseCommand([]rune(item.Command)[0])
			if err != nil {
				return fmt.Errorf("%s: %w", item.Pos, err)
			}
			unit = []engine.Command{cmd}
		}

		if len(unit) == 0 || count == 0 {
			continue
		}
		if count > (MaxCommands-len(*out))/len(unit) {
			return ErrScriptTooLong
		}
		for i := 0; i < count; i++ {
			*out = append(*out, unit...)
		}
	}
	return nil
}

// Format renders commands compactly, collapsing runs into counts
func Format(cmds []engine.Command) string {
	var b strings.Builder
	for i := 0; i < len(cmds); {
		j := i
		for j < len(cmds) && cmds[j] == cmds[i] {
			j++
		}
		if n := j - i; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
		b.WriteByte(cmds[i].Letter())
		i = j
	}
	return b.String()
}
