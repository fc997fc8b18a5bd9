package colorcipher

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// textAlign mirrors the horizontal anchors of a 2D canvas context.
type textAlign int

const (
	alignLeft textAlign = iota
	alignCenter
	alignRight
)

type faceKey struct {
	size float64
	bold bool
}

// fonts holds the parsed Go fonts. The parsed fonts are safe for concurrent use,
// the faces created from them are not, which is why every canvas keeps its own faces.
type fonts struct {
	regular *opentype.Font
	bold    *opentype.Font
}

func loadFonts() (*fonts, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse the regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse the bold font: %w", err)
	}
	return &fonts{regular: reg, bold: bold}, nil
}

// canvas is a drawing surface bound to one render call.
type canvas struct {
	img   *image.NRGBA
	fonts *fonts
	faces map[faceKey]font.Face
}

func newCanvas(width, height int, f *fonts) *canvas {
	return &canvas{
		img:   image.NewNRGBA(image.Rect(0, 0, width, height)),
		fonts: f,
		faces: make(map[faceKey]font.Face),
	}
}

// face returns a font face of the requested pixel size.
// It falls back to the fixed size basic font if the face can't be created.
func (c *canvas) face(size float64, bold bool) font.Face {
	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}
	base := c.fonts.regular
	if bold {
		base = c.fonts.bold
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[key] = f
	return f
}

// text draws s with its baseline at y, anchored at x according to align.
func (c *canvas) text(s string, x, y int, size float64, bold bool, col color.Color, align textAlign) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face(size, bold),
	}
	w := d.MeasureString(s).Round()
	switch align {
	case alignCenter:
		x -= w / 2
	case alignRight:
		x -= w
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// textMiddle draws s centered both horizontally and vertically around (cx, cy).
func (c *canvas) textMiddle(s string, cx, cy int, size float64, bold bool, col color.Color) {
	m := c.face(size, bold).Metrics()
	baseline := cy + (m.Ascent.Round()-m.Descent.Round())/2
	c.text(s, cx, baseline, size, bold, col, alignCenter)
}

// close releases the faces created by the canvas.
func (c *canvas) close() {
	for k, f := range c.faces {
		f.Close()
		delete(c.faces, k)
	}
}
