package colorcipher

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage_ImgToNRGBA(t *testing.T) {
	rect := image.Rect(-1, -1, 15, 15)
	colors := palette.Plan9
	testCases := []struct {
		name string
		img  image.Image
	}{
		{
			name: "NRGBA",
			img:  makeNRGBAImage(rect, colors),
		},
		{
			name: "Paletted",
			img:  makePalettedImage(rect, colors),
		},
		{
			name: "YCbCr-444",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio444),
		},
		{
			name: "YCbCr-420",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio420),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := tc.img.Bounds()
			dst := imgToNRGBA(tc.img)
			require.Equal(t, image.Pt(0, 0), dst.Bounds().Min)
			require.Equal(t, src.Size(), dst.Bounds().Size())

			for y := src.Min.Y; y < src.Max.Y; y++ {
				for x := src.Min.X; x < src.Max.X; x++ {
					want := color.NRGBAModel.Convert(tc.img.At(x, y)).(color.NRGBA)
					got := dst.NRGBAAt(x-src.Min.X, y-src.Min.Y)
					if want != got {
						t.Fatalf("pixel (%d, %d): got %v want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestImage_Format(t *testing.T) {
	assert := assert.New(t)

	testCases := []struct {
		in   string
		want Format
	}{
		{"png", PNG},
		{".PNG", PNG},
		{"jpg", JPEG},
		{"jpeg", JPEG},
		{".bmp", BMP},
		{"", PNG},
	}
	for _, tc := range testCases {
		f, err := ParseFormat(tc.in)
		assert.NoError(err)
		assert.Equal(tc.want, f, tc.in)
	}

	_, err := ParseFormat("gif")
	assert.ErrorIs(err, ErrUnsupportedFormat)

	f, err := FormatFromPath("/tmp/palette.jpg")
	assert.NoError(err)
	assert.Equal(JPEG, f)

	assert.True(PNG.Lossless())
	assert.True(BMP.Lossless())
	assert.False(JPEG.Lossless())
	assert.Equal("jpg", JPEG.Ext())
}

func TestImage_EncodeImage(t *testing.T) {
	img := makeCanvas(t, []Color{"486900"})

	testCases := []struct {
		format Format
		ctype  string
	}{
		{PNG, "image/png"},
		{JPEG, "image/jpeg"},
		{BMP, "image/bmp"},
	}
	for _, tc := range testCases {
		t.Run(tc.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeImage(&buf, img, tc.format))
			require.NotZero(t, buf.Len())

			_, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tc.ctype, "image/"+format)
		})
	}
}

func TestImage_EncodeJPEGQuality(t *testing.T) {
	img := makeCanvas(t, HexToColors(TextToHex("The quick brown fox jumps over the lazy dog")))

	var got, want bytes.Buffer
	require.NoError(t, EncodeImage(&got, img, JPEG))
	require.NoError(t, jpeg.Encode(&want, img, &jpeg.Options{Quality: JPEGQuality}))
	assert.Equal(t, want.Len(), got.Len())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

type silentWriter struct{}

func (silentWriter) Write(p []byte) (int, error) {
	return 0, nil
}

func TestImage_EncodeImageFailure(t *testing.T) {
	img := makeCanvas(t, []Color{"486900"})

	err := EncodeImage(failingWriter{}, img, PNG)
	assert.ErrorIs(t, err, ErrRenderFailure)

	err = EncodeImage(silentWriter{}, img, PNG)
	assert.ErrorIs(t, err, ErrRenderFailure)

	err = EncodeImage(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 0, 0)), PNG)
	assert.ErrorIs(t, err, ErrRenderFailure)

	err = EncodeImage(&bytes.Buffer{}, img, Format(42))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImage_Zoom(t *testing.T) {
	img := makeCanvas(t, []Color{"486900"})
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	zoomed := Zoom(img, 2)
	assert.Equal(t, 2*w, zoomed.Bounds().Dx())
	assert.Equal(t, 2*h, zoomed.Bounds().Dy())

	// Nearest neighbour sampling keeps the cell color exact.
	rect := SimpleGrid.CellRect(0)
	cx, cy := rect.Min.X+SimpleGrid.Cell/2, rect.Min.Y+SimpleGrid.Cell/2
	assert.Equal(t, img.NRGBAAt(cx, cy), zoomed.NRGBAAt(2*cx, 2*cy))

	clamped := Zoom(img, 100)
	assert.Equal(t, int(float64(w)*MaxZoom), clamped.Bounds().Dx())

	assert.Equal(t, w, Zoom(img, 1).Bounds().Dx())
}

func TestImage_ExtractRoundTrip(t *testing.T) {
	texts := []string{
		"Hi",
		"Hello, World!",
		"¡Hola Mundo! 🌍",
		"A message long enough to spill over the first row of the simple palette grid.",
	}
	for _, format := range []Format{PNG, BMP} {
		for _, text := range texts {
			t.Run(format.String()+"/"+text, func(t *testing.T) {
				colors := HexToColors(TextToHex(text))
				img := makeCanvas(t, colors)

				var buf bytes.Buffer
				require.NoError(t, EncodeImage(&buf, img, format))

				decoded, err := DecodeImage(bytes.NewReader(buf.Bytes()))
				require.NoError(t, err)

				got, err := ExtractColors(decoded)
				require.NoError(t, err)
				assert.Equal(t, colors, got)

				res, err := DecodeHex(ColorsToHex(got, true))
				require.NoError(t, err)
				assert.Equal(t, text, res.Text)
			})
		}
	}
}

func TestImage_DecodeRefusesLossy(t *testing.T) {
	img := makeCanvas(t, []Color{"486900"})

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, img, JPEG))

	_, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)

	_, err = DecodeImage(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}

func TestImage_ExtractRejectsOtherImages(t *testing.T) {
	_, err := ExtractColors(image.NewNRGBA(image.Rect(0, 0, 100, 100)))
	assert.ErrorIs(t, err, ErrNotAPalette)

	width, height := SimpleSize(1)
	blank := image.NewNRGBA(image.Rect(0, 0, width, height))
	_, err = ExtractColors(blank)
	assert.ErrorIs(t, err, ErrNotAPalette)
}

func makeCanvas(t *testing.T, colors []Color) *image.NRGBA {
	t.Helper()

	r, err := NewRenderer()
	require.NoError(t, err)
	img, err := r.Simple(colors, Encode)
	require.NoError(t, err)
	return img
}

func makeYCbCrImage(rect image.Rectangle, colors []color.Color, sr image.YCbCrSubsampleRatio) *image.YCbCr {
	img := image.NewYCbCr(rect, sr)
	j := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			iy := img.YOffset(x, y)
			ic := img.COffset(x, y)
			c := color.NRGBAModel.Convert(colors[j]).(color.NRGBA)
			img.Y[iy], img.Cb[ic], img.Cr[ic] = color.RGBToYCbCr(c.R, c.G, c.B)
			j++
		}
	}
	return img
}

func makeNRGBAImage(rect image.Rectangle, colors []color.Color) *image.NRGBA {
	img := image.NewNRGBA(rect)
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := color.NRGBAModel.Convert(colors[i]).(color.NRGBA)
			c.A = uint8(i % 256)
			img.SetNRGBA(x, y, c)
			i++
		}
	}
	return img
}

func makePalettedImage(rect image.Rectangle, colors []color.Color) *image.Paletted {
	img := image.NewPaletted(rect, colors)
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetColorIndex(x, y, uint8(i%len(colors)))
			i++
		}
	}
	return img
}
