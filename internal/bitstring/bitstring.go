// Package bitstring defines the validated bit-string input type for analysis.
package bitstring

import (
	"errors"
	"fmt"
	"strings"
)

// Input errors.
var (
	// ErrEmptyInput is returned when an operation requires a non-empty bit string.
	ErrEmptyInput = errors.New("bitstring: empty input")

	// ErrInvalidCharacter is returned in strict mode when the input contains
	// characters other than '0' and '1'.
	ErrInvalidCharacter = errors.New("bitstring: invalid character")
)

// BitString is an immutable sequence of '0' and '1' characters.
// The zero value is empty and invalid for analysis.
type BitString string

// Sanitize strips every rune that is not '0' or '1' and returns the result.
// This is the default preprocessing path: callers that accept free-form text
// (files, CLI arguments) run it before analysis. The sanitized string may be
// empty; Parse or the caller decides whether that is an error.
func Sanitize(s string) BitString {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '0' || r == '1' {
			b.WriteRune(r)
		}
	}
	return BitString(b.String())
}

// Parse validates s strictly: every character must be '0' or '1' and the
// string must be non-empty. Callers that require exact input use Parse
// instead of Sanitize.
func Parse(s string) (BitString, error) {
	if len(s) == 0 {
		return "", ErrEmptyInput
	}
	for i, r := range s {
		if r != '0' && r != '1' {
			return "", fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, r, i)
		}
	}
	return BitString(s), nil
}

// Len returns the number of bits.
func (b BitString) Len() int { return len(b) }

// String returns the raw character sequence.
func (b BitString) String() string { return string(b) }

// At returns the bit at position i as an integer 0 or 1.
// Positions outside the string return 0.
func (b BitString) At(i int) int {
	if i < 0 || i >= len(b) {
		return 0
	}
	if b[i] == '1' {
		return 1
	}
	return 0
}

// Ones counts the '1' bits.
func (b BitString) Ones() int {
	n := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '1' {
			n++
		}
	}
	return n
}

// Zeros counts the '0' bits.
func (b BitString) Zeros() int {
	return len(b) - b.Ones()
}

// AllSame reports whether every bit equals the first one.
// An empty string is not considered uniform.
func (b BitString) AllSame() bool {
	if len(b) == 0 {
		return false
	}
	for i := 1; i < len(b); i++ {
		if b[i] != b[0] {
			return false
		}
	}
	return true
}

// Truncate returns the first n bits, or the whole string if it is shorter.
func (b BitString) Truncate(n int) BitString {
	if n < 0 {
		n = 0
	}
	if len(b) <= n {
		return b
	}
	return b[:n]
}
