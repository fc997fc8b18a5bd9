package colorcipher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ColorLen is the number of hex digits of one RGB color.
const ColorLen = 6

var (
	// ErrInvalidHex is returned when a hex string contains a character outside [0-9a-fA-F].
	ErrInvalidHex = errors.New("invalid hexadecimal characters")
	// ErrOddLength is returned when a hex string cannot be split into whole bytes.
	ErrOddLength = errors.New("hexadecimal length must be a multiple of 2")
)

// Color is a 6 digit hexadecimal RGB value, without the leading '#'.
type Color string

// Hex returns the display form of the color: '#' followed by the uppercase digits.
func (c Color) Hex() string {
	return "#" + strings.ToUpper(string(c))
}

// TextToHex converts every byte of the UTF-8 encoded text into a lowercase,
// zero padded hex pair. ASCII text produces exactly one pair per character.
func TextToHex(text string) string {
	return hex.EncodeToString([]byte(text))
}

// HexToText converts consecutive hex pairs back into text.
// The whole input is checked before decoding, so a malformed string never yields partial output.
// Byte sequences which are not valid UTF-8 are read as Latin-1, one character per byte.
func HexToText(s string) (string, error) {
	if i := invalidHexIndex(s); i >= 0 {
		return "", fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, s[i], i)
	}
	if len(s)%2 != 0 {
		return "", fmt.Errorf("%w: got %d digits", ErrOddLength, len(s))
	}

	buf, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if utf8.Valid(buf) {
		return string(buf), nil
	}

	runes := make([]rune, len(buf))
	for i, b := range buf {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

// HexToColors splits the hex string into consecutive 6 digit colors, from left to right.
// The last color is right padded with '0' when the input length is not a multiple of 6.
// It never fails and it does not validate the input.
func HexToColors(s string) []Color {
	colors := make([]Color, 0, (len(s)+ColorLen-1)/ColorLen)
	for i := 0; i < len(s); i += ColorLen {
		end := i + ColorLen
		if end > len(s) {
			chunk := s[i:] + strings.Repeat("0", end-len(s))
			colors = append(colors, Color(chunk))
			break
		}
		colors = append(colors, Color(s[i:end]))
	}
	return colors
}

// ColorsToHex concatenates the colors back into a hex string.
// With trimPadding set, trailing "00" pairs of the last color are dropped:
// a text ending in NUL bytes can't be told apart from the padding.
func ColorsToHex(colors []Color, trimPadding bool) string {
	var sb strings.Builder
	sb.Grow(len(colors) * ColorLen)
	for _, c := range colors {
		sb.WriteString(strings.ToLower(string(c)))
	}
	out := sb.String()
	if !trimPadding || len(out) == 0 {
		return out
	}

	// Padding never spans more than the two last pairs of the final color.
	for i := 0; i < 2 && strings.HasSuffix(out, "00"); i++ {
		out = out[:len(out)-2]
	}
	return out
}

// invalidHexIndex returns the offset of the first non hex character, or -1.
func invalidHexIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return i
		}
	}
	return -1
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
