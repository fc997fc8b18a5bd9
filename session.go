package colorcipher

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Result holds everything derived from one processed input.
// It is replaced as a whole by the next successful operation.
type Result struct {
	Mode    Mode
	Text    string // the input text in encode mode, the decoded text in decode mode
	Hex     string
	Colors  []Color
	Palette []PaletteEntry
	Info    Info
}

// Empty reports whether the result holds no colors.
func (r Result) Empty() bool {
	return len(r.Colors) == 0
}

// EncodeText runs the encode pipeline on an already validated text.
func EncodeText(text string) Result {
	hex := TextToHex(text)
	colors := HexToColors(hex)
	return Result{
		Mode:    Encode,
		Text:    text,
		Hex:     hex,
		Colors:  colors,
		Palette: BuildPalette(colors),
		Info:    BuildInfo(text, hex, colors, Encode),
	}
}

// DecodeHex runs the decode pipeline on an already validated hex string.
// The colors are derived from the hex string itself, independently of the text decoding.
func DecodeHex(hex string) (Result, error) {
	colors := HexToColors(hex)
	text, err := HexToText(hex)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Mode:    Decode,
		Text:    text,
		Hex:     hex,
		Colors:  colors,
		Palette: BuildPalette(colors),
		Info:    BuildInfo(text, hex, colors, Decode),
	}, nil
}

// Session keeps the operating mode and the last result of an interactive surface.
// Only one Process call runs at a time: a call made while another one is in flight
// is dropped without error.
type Session struct {
	mu     sync.RWMutex
	mode   Mode
	result Result

	busy     atomic.Bool
	logger   *zap.Logger
	observer func(Result)
}

// Option configures a Session.
type Option func(*Session)

// WithMode sets the initial mode of the session.
func WithMode(m Mode) Option {
	return func(s *Session) {
		s.mode = m
	}
}

// WithLogger sets the logger used for the session events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a callback receiving every new result.
// The callback runs before Process returns, while the session is still busy,
// so it is the place for the slow tail of an operation (rendering, saving files).
func WithObserver(fn func(Result)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// NewSession creates an idle session in encode mode unless configured otherwise.
func NewSession(opts ...Option) *Session {
	s := &Session{
		mode:   Encode,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the current operating mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Busy reports whether an operation is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Result returns the last successful result.
func (s *Session) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// ToggleMode flips between encode and decode and discards the previous result,
// so outputs of the two modes are never mixed. It is ignored while an operation
// is in flight. The new mode is returned.
func (s *Session) ToggleMode() Mode {
	// The toggle holds the guard so no Process can read the old mode
	// and store its result after the state was cleared.
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("mode toggle ignored, operation in flight")
		return s.Mode()
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = s.mode.Toggle()
	s.result = Result{}
	s.logger.Debug("mode toggled", zap.Stringer("mode", s.mode))
	return s.mode
}

// Clear discards the last result and keeps the mode.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = Result{}
}

// Process validates the raw input and runs the pipeline of the current mode.
// On success the result replaces the previous one and the observer is notified.
// On failure the previous result is left untouched and the error is returned.
// If another operation is in flight the call does nothing.
func (s *Session) Process(raw string) error {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("process dropped, operation in flight")
		return nil
	}
	defer s.busy.Store(false)

	mode := s.Mode()
	res, err := process(raw, mode)
	if err != nil {
		s.logger.Debug("process failed", zap.Stringer("mode", mode), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	s.logger.Debug("process done",
		zap.Stringer("mode", mode),
		zap.Int("chars", res.Info.Chars),
		zap.Int("colors", res.Info.Colors),
	)
	if s.observer != nil {
		s.observer(res)
	}
	return nil
}

func process(raw string, mode Mode) (Result, error) {
	input, err := Validate(raw, mode)
	if err != nil {
		return Result{}, err
	}
	switch mode {
	case Encode:
		return EncodeText(input), nil
	case Decode:
		return DecodeHex(input)
	}
	return Result{}, fmt.Errorf("unsupported mode: %v", mode)
}
