package colorcipher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSession_Encode(t *testing.T) {
	s := NewSession(WithLogger(zaptest.NewLogger(t)))
	require.Equal(t, Encode, s.Mode())

	require.NoError(t, s.Process("  Hi  "))

	res := s.Result()
	assert.Equal(t, Encode, res.Mode)
	assert.Equal(t, "Hi", res.Text)
	assert.Equal(t, "4869", res.Hex)
	assert.Equal(t, []Color{"486900"}, res.Colors)
	assert.Equal(t, "#486900", res.Palette[0].Hex)
	assert.Equal(t, 2, res.Info.Chars)
	assert.False(t, s.Busy())
}

func TestSession_Decode(t *testing.T) {
	s := NewSession(WithMode(Decode))

	require.NoError(t, s.Process("#48 65 6C 6C 6F"))

	res := s.Result()
	assert.Equal(t, Decode, res.Mode)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, "48656C6C6F", res.Hex)
	assert.Equal(t, []Color{"48656C", "6C6F00"}, res.Colors)
	assert.Equal(t, "#48656C", res.Palette[0].Hex)
	assert.False(t, res.Info.HasRatio)
}

func TestSession_ErrorKeepsResult(t *testing.T) {
	s := NewSession(WithMode(Decode))
	require.NoError(t, s.Process("4869"))
	before := s.Result()

	assert.ErrorIs(t, s.Process("zz11"), ErrInvalidHexCharacters)
	assert.ErrorIs(t, s.Process("abc"), ErrOddHexLength)
	assert.ErrorIs(t, s.Process("   "), ErrEmptyInput)
	assert.Equal(t, before, s.Result())
}

func TestSession_ToggleClearsResult(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Process("Hi"))
	require.False(t, s.Result().Empty())

	assert.Equal(t, Decode, s.ToggleMode())
	assert.True(t, s.Result().Empty())
	assert.Equal(t, Decode, s.Mode())

	assert.Equal(t, Encode, s.ToggleMode())

	require.NoError(t, s.Process("Hi"))
	s.Clear()
	assert.True(t, s.Result().Empty())
	assert.Equal(t, Encode, s.Mode())
}

func TestSession_SingleFlight(t *testing.T) {
	var (
		s     *Session
		calls int
	)
	s = NewSession(WithObserver(func(res Result) {
		calls++
		assert.True(t, s.Busy())

		// A request arriving while the first one is in flight is dropped.
		assert.NoError(t, s.Process("ignored"))
		assert.Equal(t, Encode, s.ToggleMode(), "mode toggles are ignored while busy")
	}))

	require.NoError(t, s.Process("first"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "first", s.Result().Text)
	assert.Equal(t, Encode, s.Mode())
	assert.False(t, s.Busy())

	require.NoError(t, s.Process("second"))
	assert.Equal(t, 2, calls)
}

func TestSession_Concurrent(t *testing.T) {
	s := NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Process("concurrent")
			_ = s.Result()
		}()
	}
	wg.Wait()

	assert.Equal(t, "concurrent", s.Result().Text)
	assert.False(t, s.Busy())
}

func TestSession_ToggleDuringProcess(t *testing.T) {
	// "4869" is valid in both modes, so every Process that runs stores a result.
	for round := 0; round < 200; round++ {
		s := NewSession()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = s.Process("4869")
			}()
			go func() {
				defer wg.Done()
				s.ToggleMode()
			}()
		}
		wg.Wait()

		res := s.Result()
		if !res.Empty() && res.Mode != s.Mode() {
			t.Fatalf("round %d: %s result kept in %s mode", round, res.Mode, s.Mode())
		}
		assert.False(t, s.Busy())
	}
}

func TestSession_ToggleHoldsTheGuard(t *testing.T) {
	var s *Session
	s = NewSession(WithObserver(func(Result) {
		// The guard is held, so the toggle is dropped.
		assert.Equal(t, Encode, s.ToggleMode())
	}))
	require.NoError(t, s.Process("Hi"))

	assert.Equal(t, Decode, s.ToggleMode())
	assert.False(t, s.Busy(), "the toggle releases the guard")
	require.NoError(t, s.Process("4869"))
	assert.Equal(t, "Hi", s.Result().Text)
}
