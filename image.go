package colorcipher

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/colorcipher/utils"
	"golang.org/x/image/bmp"
)

// JPEGQuality is the quality of the lossy export.
const JPEGQuality = 90

// Zoom bounds.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

var (
	// ErrRenderFailure is returned when the canvas could not be encoded into an image file.
	ErrRenderFailure = errors.New("could not produce the image")
	// ErrUnsupportedFormat is returned for unknown image formats.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNotAPalette is returned when an image does not look like a simple layout export.
	ErrNotAPalette = errors.New("the image is not a simple palette export")
	// ErrSimpleZoom is returned when the simple layout is asked to shrink:
	// downscaling drops the cell outlines ExtractColors relies on.
	ErrSimpleZoom = errors.New("the simple layout can't be zoomed below 1")
)

// Format is the encoding of an exported image.
type Format int

const (
	PNG Format = iota
	JPEG
	BMP
)

// Ext returns the file extension of the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return "jpg"
	case BMP:
		return "bmp"
	default:
		return "png"
	}
}

func (f Format) String() string { return f.Ext() }

// Lossless reports whether the format preserves every pixel value.
func (f Format) Lossless() bool { return f != JPEG }

// ParseFormat converts a format name or a file extension into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png", "":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	}
	return PNG, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath returns the format matching the file extension of path.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// countWriter counts the bytes written through it.
type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// EncodeImage encodes img into w using the requested format.
// Every failure, including an encoder which writes nothing, is reported as ErrRenderFailure.
func EncodeImage(w io.Writer, img image.Image, f Format) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: empty canvas", ErrRenderFailure)
	}
	cw := &countWriter{w: w}

	var err error
	switch f {
	case PNG:
		err = imaging.Encode(cw, img, imaging.PNG)
	case JPEG:
		err = imaging.Encode(cw, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	case BMP:
		err = bmp.Encode(cw, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	if cw.n == 0 {
		return fmt.Errorf("%w: the %s encoder produced no output", ErrRenderFailure, f)
	}
	return nil
}

// Zoom rescales a rendered canvas by factor with nearest neighbour sampling,
// so every cell keeps a single flat color. The factor is clamped to [MinZoom, MaxZoom].
func Zoom(img image.Image, factor float64) *image.NRGBA {
	factor = utils.Clamp(factor, MinZoom, MaxZoom)
	if factor == 1 {
		return imgToNRGBA(img)
	}
	width := int(float64(img.Bounds().Dx()) * factor)
	return imaging.Resize(img, utils.Max(width, 1), 0, imaging.NearestNeighbor)
}

// DecodeImage decodes a losslessly encoded image. JPEG files are refused,
// since the lossy export can't be read back into the exact colors.
func DecodeImage(r io.ReadSeeker) (image.Image, error) {
	ctype, err := utils.DetectContentType(r)
	if err != nil {
		return nil, fmt.Errorf("could not read the image header: %w", err)
	}
	if !strings.Contains(ctype, "image") {
		return nil, fmt.Errorf("the source should be an image file, got %s", ctype)
	}
	if !utils.IsLossless(ctype) {
		return nil, fmt.Errorf("%s images are lossy and can't be decoded into colors", ctype)
	}

	// The bmp package registers its decoder with the image package.
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image file: %w", err)
	}
	return img, nil
}

// ExtractColors reads the color sequence back from a simple layout canvas.
// A cell is recognised by its outline and its color is sampled at the center,
// scanning the grid in row-major order up to the first empty slot.
// Canvases enlarged with Zoom are accepted: every canvas coordinate is mapped
// onto the pixel nearest neighbour sampling copied it to.
func ExtractColors(img image.Image) ([]Color, error) {
	src := imgToNRGBA(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()

	baseWidth, _ := SimpleSize(0)
	if width < baseWidth {
		return nil, fmt.Errorf("%w: expected a width of at least %dpx, got %dpx", ErrNotAPalette, baseWidth, width)
	}
	baseHeight, ok := simpleBaseHeight(width, height)
	if !ok {
		return nil, fmt.Errorf("%w: a %dx%d image doesn't match any grid", ErrNotAPalette, width, height)
	}
	sx := float64(width) / float64(baseWidth)
	sy := float64(height) / float64(baseHeight)

	at := func(x, y int) color.NRGBA {
		return src.NRGBAAt(int((float64(x)+0.5)*sx), int((float64(y)+0.5)*sy))
	}

	var (
		g      = SimpleGrid
		bounds = image.Rect(0, 0, baseWidth, baseHeight)
		colors []Color
	)
	for i := 0; ; i++ {
		rect := g.CellRect(i)
		if !rect.In(bounds) || at(rect.Min.X, rect.Min.Y) != outlineColor {
			break
		}
		center := at(rect.Min.X+g.Cell/2, rect.Min.Y+g.Cell/2)
		colors = append(colors, Color(utils.RGBToHex(center)))
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: no color cell found", ErrNotAPalette)
	}
	return colors, nil
}

// simpleBaseHeight finds the height of the unzoomed simple canvas which Zoom
// turns into a width x height image. Zoom keeps the aspect ratio and rounds the height.
func simpleBaseHeight(width, height int) (int, bool) {
	baseWidth, _ := SimpleSize(0)
	for n := 1; ; n += SimpleGrid.Columns {
		_, h := SimpleSize(n)
		scaled := int(float64(width)*float64(h)/float64(baseWidth) + 0.5)
		if scaled == height {
			return h, true
		}
		if scaled > height {
			return 0, false
		}
	}
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.Paletted:
		for dstY := 0; dstY < dstH; dstY++ {
			for dstX := 0; dstX < dstW; dstX++ {
				c := src.Palette[src.ColorIndexAt(srcMinX+dstX, srcMinY+dstY)]
				dst.SetNRGBA(dstX, dstY, color.NRGBAModel.Convert(c).(color.NRGBA))
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
