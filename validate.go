package colorcipher

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLen is the maximum number of characters accepted in encode mode.
const MaxTextLen = 1000

// Mode selects the direction of the cipher.
type Mode int

const (
	// Encode turns text into colors.
	Encode Mode = iota
	// Decode turns a hex string into text and colors.
	Decode
)

// String returns the mode tag used in logs, captions and file names.
func (m Mode) String() string {
	switch m {
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == Encode {
		return Decode
	}
	return Encode
}

// ParseMode converts a mode tag into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encode", "enc", "":
		return Encode, nil
	case "decode", "dec":
		return Decode, nil
	}
	return Encode, fmt.Errorf("unknown mode %q", s)
}

var (
	// ErrEmptyInput is returned when there is nothing left to process after trimming.
	ErrEmptyInput = errors.New("input is empty")
	// ErrTooLong is returned when the text exceeds MaxTextLen characters.
	ErrTooLong = fmt.Errorf("text is longer than %d characters", MaxTextLen)
	// ErrInvalidHexCharacters is returned when a decode input has non hex characters.
	ErrInvalidHexCharacters = ErrInvalidHex
	// ErrOddHexLength is returned when a decode input has an odd number of hex digits.
	ErrOddHexLength = ErrOddLength
)

// ValidationError describes why a raw input was rejected.
type ValidationError struct {
	Mode   Mode
	Err    error
	Offset int // offset of the offending character in the cleaned input, -1 if not applicable
	Length int // length of the cleaned input, in characters
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %v (offset %d)", e.Mode, e.Err, e.Offset)
	}
	return fmt.Sprintf("%s: %v", e.Mode, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the raw input against the rules of the mode and returns the cleaned input.
//
// In encode mode the trimmed text is returned unchanged. In decode mode all whitespace and
// one leading '#' are removed; the character set is checked before the parity, so a
// malformed string is reported as such even when its length is even.
func Validate(raw string, mode Mode) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &ValidationError{Mode: mode, Err: ErrEmptyInput, Offset: -1}
	}

	switch mode {
	case Encode:
		if n := utf8.RuneCountInString(text); n > MaxTextLen {
			return "", &ValidationError{Mode: mode, Err: ErrTooLong, Offset: -1, Length: n}
		}
		return text, nil
	case Decode:
		return cleanHex(text)
	default:
		return "", fmt.Errorf("unsupported mode: %v", mode)
	}
}

func cleanHex(text string) (string, error) {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	text = strings.TrimPrefix(text, "#")

	if text == "" {
		return "", &ValidationError{Mode: Decode, Err: ErrEmptyInput, Offset: -1}
	}
	if i := invalidHexIndex(text); i >= 0 {
		return "", &ValidationError{Mode: Decode, Err: ErrInvalidHexCharacters, Offset: i, Length: len(text)}
	}
	if len(text)%2 != 0 {
		return "", &ValidationError{Mode: Decode, Err: ErrOddHexLength, Offset: -1, Length: len(text)}
	}
	return text, nil
}
