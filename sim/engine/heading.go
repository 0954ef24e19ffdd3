package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHeading = errors.New("invalid heading")

// Heading is one of the four compass directions, written as its letter
type Heading string

const (
	North Heading = "N"
	East  Heading = "E"
	South Heading = "S"
	West  Heading = "W"
)

// Headings lists every heading in clockwise order starting at North
var Headings = []Heading{North, East, South, West}

// ParseHeading accepts a compass letter or full name in any case
func ParseHeading(s string) (Heading, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHeading, s)
}

// Valid reports whether h is one of the four compass headings
func (h Heading) Valid() bool {
	switch h {
	case North, East, South, West:
		return true
	}
	return false
}

// Left returns the heading a quarter turn counter-clockwise
func (h Heading) Left() Heading {
	switch h {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	case East:
		return North
	}
	return h
}

// Right returns the heading a quarter turn clockwise
func (h Heading) Right() Heading {
	switch h {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	case West:
		return North
	}
	return h
}

// Delta is the unit step taken by a move. North increases y.
func (h Heading) Delta() Position {
	switch h {
	case North:
		return Position{0, 1}
	case South:
		return Position{0, -1}
	case East:
		return Position{1, 0}
	case West:
		return Position{-1, 0}
	}
	return Position{}
}

// Name returns the full lowercase name of the heading
func (h Heading) Name() string {
	switch h {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "unknown"
}
