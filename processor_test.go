package colorcipher

import (
	"bytes"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/esimov/colorcipher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestProcessor_Encode(t *testing.T) {
	p := &Processor{Mode: Encode, Layout: Detailed, Logger: zaptest.NewLogger(t)}

	var buf bytes.Buffer
	res, err := p.ProcessResult(strings.NewReader("Hello, World!\n"), &buf)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", res.Text)
	assert.Len(t, res.Colors, 5)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	w, h := DetailedSize(len(res.Colors))
	assert.Equal(t, w, cfg.Width)
	assert.Equal(t, h, cfg.Height)
}

func TestProcessor_Zoom(t *testing.T) {
	p := &Processor{Mode: Encode, Layout: Simple, Zoom: 2}

	res, err := p.Run(strings.NewReader("Hi"))
	require.NoError(t, err)

	img, err := p.Image(res)
	require.NoError(t, err)
	w, h := SimpleSize(1)
	assert.Equal(t, image.Rect(0, 0, 2*w, 2*h), img.Bounds())
}

func TestProcessor_SimpleRefusesLossy(t *testing.T) {
	p := &Processor{Mode: Encode, Layout: Simple, Format: JPEG}

	err := p.Process(strings.NewReader("Hi"), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrLossyLayout)

	p = &Processor{Mode: Encode, Layout: Detailed, Format: JPEG}
	var buf bytes.Buffer
	require.NoError(t, p.Process(strings.NewReader("Hi"), &buf))
	_, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestProcessor_InvalidInput(t *testing.T) {
	p := &Processor{Mode: Decode}

	var buf bytes.Buffer
	err := p.Process(strings.NewReader("zz11"), &buf)
	assert.ErrorIs(t, err, ErrInvalidHexCharacters)
	assert.Zero(t, buf.Len(), "nothing is rendered for a rejected input")

	err = p.Process(strings.NewReader(""), &buf)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProcessor_Run(t *testing.T) {
	p := &Processor{Mode: Decode}

	res, err := p.Run(strings.NewReader("#4869"))
	require.NoError(t, err)
	assert.Equal(t, "Hi", res.Text)
	assert.Equal(t, []Color{"486900"}, res.Colors)
}

func TestProcessor_Extract(t *testing.T) {
	const text = "Round trip through the simple layout ✓"

	enc := &Processor{Mode: Encode, Layout: Simple}
	var img bytes.Buffer
	require.NoError(t, enc.Process(strings.NewReader(text), &img))

	dec := &Processor{Extract: true}
	var out bytes.Buffer
	res, err := dec.ProcessResult(bytes.NewReader(img.Bytes()), &out)
	require.NoError(t, err)
	assert.Equal(t, text, out.String())
	assert.Equal(t, text, res.Text)
	assert.Equal(t, Decode, res.Mode)

	// Plain text is not a palette image.
	assert.Error(t, dec.Process(strings.NewReader(text), &out))
}

func TestProcessor_ZoomedExtract(t *testing.T) {
	const text = "Zoomed palettes are still readable, row after row after row."

	for _, zoom := range []float64{1, 1.5, 2, 3, 4} {
		enc := &Processor{Mode: Encode, Layout: Simple, Zoom: zoom}
		var img bytes.Buffer
		require.NoError(t, enc.Process(strings.NewReader(text), &img), "zoom %v", zoom)

		dec := &Processor{Extract: true}
		var out bytes.Buffer
		require.NoError(t, dec.Process(bytes.NewReader(img.Bytes()), &out), "zoom %v", zoom)
		assert.Equal(t, text, out.String(), "zoom %v", zoom)
	}
}

func TestProcessor_SimpleRefusesShrinking(t *testing.T) {
	p := &Processor{Mode: Encode, Layout: Simple, Zoom: 0.5}
	err := p.Process(strings.NewReader("Hi"), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrSimpleZoom)

	p = &Processor{Mode: Encode, Layout: Detailed, Zoom: 0.5}
	res, err := p.Run(strings.NewReader("Hi"))
	require.NoError(t, err)
	img, err := p.Image(res)
	require.NoError(t, err)
	w, _ := DetailedSize(1)
	assert.Equal(t, w/2, img.Bounds().Dx())
}

func TestProcessor_Export(t *testing.T) {
	saver := &memSaver{}
	p := &Processor{
		Mode:   Decode,
		Layout: Simple,
		Format: BMP,
		Now:    func() time.Time { return time.UnixMilli(1700000000456) },
	}

	name, err := p.Export(strings.NewReader("#4869"), saver)
	require.NoError(t, err)
	assert.Equal(t, "visual-cipher-simple-decode-1700000000456.bmp", name)
	require.Contains(t, saver.files, name)

	_, err = (&Processor{Extract: true}).Export(strings.NewReader("#4869"), saver)
	assert.Error(t, err)
}

func quietSpinner() *utils.Spinner {
	s := utils.NewSpinner("", time.Millisecond, false)
	s.SetWriter(&bytes.Buffer{})
	return s
}
