// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package region

import (
	"fmt"
	"strings"
)

// Level identifies the depth of a region code in the hierarchy.
type Level int

const (
	LevelCountry Level = iota + 1
	LevelState
	LevelCounty
)

// Code is a parsed hierarchical region code such as "US", "US-OH" or
// "US-OH-105". Keeping the segments separate lets ancestry checks compare
// whole segments instead of raw string prefixes, so "US-O" never matches
// "US-OH".
type Code struct {
	segments []string
}

// ParseCode validates and parses a region code string. Codes have one to
// three non-empty dash-separated segments.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Code{}, fmt.Errorf("region code is empty")
	}
	segments := strings.Split(s, "-")
	if len(segments) > 3 {
		return Code{}, fmt.Errorf("region code %q has more than three segments", s)
	}
	for _, seg := range segments {
		if seg == "" {
			return Code{}, fmt.Errorf("region code %q has an empty segment", s)
		}
	}
	return Code{segments: segments}, nil
}

// MustParseCode parses a code known to be valid, panicking otherwise.
// Intended for static data and tests.
func MustParseCode(s string) Code {
	c, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String reassembles the code in its canonical dashed form.
func (c Code) String() string {
	return strings.Join(c.segments, "-")
}

// IsZero reports whether the code is unset.
func (c Code) IsZero() bool {
	return len(c.segments) == 0
}

// Level returns the hierarchy level denoted by the segment count.
func (c Code) Level() Level {
	return Level(len(c.segments))
}

// Parent returns the code one level up, or a zero Code for countries.
func (c Code) Parent() Code {
	if len(c.segments) <= 1 {
		return Code{}
	}
	return Code{segments: c.segments[:len(c.segments)-1]}
}

// CountryCode returns the one-segment ancestor of the code.
func (c Code) CountryCode() string {
	if len(c.segments) == 0 {
		return ""
	}
	return c.segments[0]
}

// StateCode returns the two-segment ancestor, or "" for country codes.
func (c Code) StateCode() string {
	if len(c.segments) < 2 {
		return ""
	}
	return strings.Join(c.segments[:2], "-")
}

// IsAncestorOf reports whether c is a strict hierarchical ancestor of
// other, comparing whole segments.
func (c Code) IsAncestorOf(other Code) bool {
	if len(c.segments) == 0 || len(c.segments) >= len(other.segments) {
		return false
	}
	for i, seg := range c.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

// Contains reports whether other equals c or lies underneath it.
func (c Code) Contains(other Code) bool {
	if len(c.segments) == 0 || len(c.segments) > len(other.segments) {
		return false
	}
	for i, seg := range c.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}
