package colorcipher

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/esimov/colorcipher/utils"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrNothingToRender is returned when a layout is requested for an empty color sequence.
var ErrNothingToRender = errors.New("there are no colors to render")

// Layout identifies one of the export layouts.
type Layout int

const (
	// Detailed is the presentation layout: title, caption, labelled grid and footer.
	Detailed Layout = iota
	// Simple is the compact grid with a single caption.
	Simple
)

func (l Layout) String() string {
	switch l {
	case Detailed:
		return "detailed"
	case Simple:
		return "simple"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout converts a layout name into a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detailed", "":
		return Detailed, nil
	case "simple":
		return Simple, nil
	}
	return Detailed, fmt.Errorf("unknown layout %q", s)
}

// Grid describes the placement of the color cells on a canvas.
// Cells are laid out row-major: cell i sits at row i/Columns, column i%Columns.
type Grid struct {
	Columns int
	Cell    int // cell side in pixels
	Gutter  int // space between two cells
	OriginX int // left edge of the first cell
	OriginY int // top edge of the first cell
}

// Rows returns the number of rows needed for n cells.
func (g Grid) Rows(n int) int {
	return utils.CeilDiv(n, g.Columns)
}

// CellRect returns the bounds of the cell at the 0-based index i.
func (g Grid) CellRect(i int) image.Rectangle {
	row, col := i/g.Columns, i%g.Columns
	x := g.OriginX + col*(g.Cell+g.Gutter)
	y := g.OriginY + row*(g.Cell+g.Gutter)
	return image.Rect(x, y, x+g.Cell, y+g.Cell)
}

const (
	detailedPadding = 40
	detailedHeader  = 120
	detailedInset   = 20
	captionMaxLen   = 30

	simpleHeader = 40
	simpleFooter = 20
)

var (
	// DetailedGrid is the cell placement of the detailed layout.
	DetailedGrid = Grid{Columns: 8, Cell: 60, Gutter: 10, OriginX: detailedPadding, OriginY: 130}
	// SimpleGrid is the cell placement of the simple layout.
	SimpleGrid = Grid{Columns: 10, Cell: 40, Gutter: 5, OriginX: 5, OriginY: 5 + simpleHeader}
)

// Palette of the rendered canvases.
var (
	gradientStart = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	gradientEnd   = color.NRGBA{R: 0x16, G: 0x21, B: 0x3e, A: 0xff}
	panelColor    = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xf2} // 95% opaque white
	inkColor      = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	captionColor  = color.NRGBA{R: 0x43, G: 0x61, B: 0xee, A: 0xff}
	mutedColor    = color.NRGBA{R: 0x6c, G: 0x75, B: 0x7d, A: 0xff}
	borderColor   = color.NRGBA{A: 0x1a} // 10% opaque black
	outlineColor  = color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	titleColor    = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	footerColor   = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
)

// Labels printed on the canvases.
const (
	DetailedTitle  = "ENCRYPTED COLOR PALETTE"
	SimpleTitle    = "VISUAL CIPHER"
	FooterLabel    = "Visual Cipher System"
	TimestampStyle = "Jan 2, 2006 15:04"
)

// Renderer draws a color sequence onto a raster canvas.
// A Renderer is safe for concurrent use.
type Renderer struct {
	// Now returns the time printed in the footer of the detailed layout.
	Now   func() time.Time
	fonts *fonts
}

// NewRenderer loads the fonts used for the canvas labels.
func NewRenderer() (*Renderer, error) {
	f, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{Now: time.Now, fonts: f}, nil
}

// Render draws the colors with the requested layout.
// The caption is only printed by the detailed layout.
func (r *Renderer) Render(layout Layout, colors []Color, caption string, mode Mode) (*image.NRGBA, error) {
	switch layout {
	case Detailed:
		return r.Detailed(colors, caption, mode)
	case Simple:
		return r.Simple(colors, mode)
	default:
		return nil, fmt.Errorf("unsupported layout: %v", layout)
	}
}

// DetailedSize returns the canvas dimensions of the detailed layout for n colors.
func DetailedSize(n int) (width, height int) {
	g := DetailedGrid
	width = g.Columns*(g.Cell+g.Gutter) + detailedPadding*2
	height = detailedPadding*2 + g.Rows(n)*(g.Cell+g.Gutter) + detailedHeader
	return width, height
}

// SimpleSize returns the canvas dimensions of the simple layout for n colors.
func SimpleSize(n int) (width, height int) {
	g := SimpleGrid
	width = g.Columns*(g.Cell+g.Gutter) + g.Gutter
	height = g.Rows(n)*(g.Cell+g.Gutter) + g.Gutter + simpleHeader + simpleFooter
	return width, height
}

// Detailed draws the presentation layout: a gradient background behind a near-opaque
// panel holding the title, the quoted caption, a summary line, the labelled color grid
// and a footer with the generation time.
func (r *Renderer) Detailed(colors []Color, caption string, mode Mode) (*image.NRGBA, error) {
	fills, err := parseColors(colors)
	if err != nil {
		return nil, err
	}

	width, height := DetailedSize(len(colors))
	c := newCanvas(width, height, r.fonts)
	defer c.close()

	c.gradient(c.img.Bounds(), gradientStart, gradientEnd)
	draw.Draw(c.img, c.img.Bounds().Inset(detailedInset), image.NewUniform(panelColor), image.Point{}, draw.Over)

	cx := width / 2
	c.text(DetailedTitle, cx, 60, 24, true, inkColor, alignCenter)
	c.text(`"`+truncate(caption, captionMaxLen)+`"`, cx, 85, 14, false, captionColor, alignCenter)
	summary := fmt.Sprintf("%d colors | %d characters | %s", len(colors), utf8.RuneCountInString(caption), mode)
	c.text(summary, cx, 105, 12, false, mutedColor, alignCenter)

	g := DetailedGrid
	for i, fill := range fills {
		rect := g.CellRect(i)
		draw.Draw(c.img, rect, image.NewUniform(fill), image.Point{}, draw.Src)
		c.stroke(rect, 2, borderColor)

		mid := rect.Min.X + g.Cell/2
		c.text(colors[i].Hex(), mid, rect.Max.Y+15, 10, true, inkColor, alignCenter)
		c.textMiddle(fmt.Sprint(i+1), mid, rect.Min.Y+g.Cell/2, 12, true, contrastColor(fill))
	}

	footerY := height - 20
	c.text(FooterLabel, 30, footerY, 10, false, inkColor, alignLeft)
	stamp := "Generated: " + r.now().Format(TimestampStyle)
	c.text(stamp, width-30, footerY, 10, false, inkColor, alignRight)

	return c.img, nil
}

// Simple draws the compact layout: a flat white canvas with a title,
// the outlined color grid and a footer with the color count and the mode.
func (r *Renderer) Simple(colors []Color, mode Mode) (*image.NRGBA, error) {
	fills, err := parseColors(colors)
	if err != nil {
		return nil, err
	}

	width, height := SimpleSize(len(colors))
	c := newCanvas(width, height, r.fonts)
	defer c.close()

	draw.Draw(c.img, c.img.Bounds(), image.White, image.Point{}, draw.Src)
	c.text(SimpleTitle, width/2, 25, 16, true, titleColor, alignCenter)

	for i, fill := range fills {
		rect := SimpleGrid.CellRect(i)
		draw.Draw(c.img, rect, image.NewUniform(fill), image.Point{}, draw.Src)
		c.stroke(rect, 1, outlineColor)
	}

	footer := fmt.Sprintf("%d colors generated | %s", len(colors), mode)
	c.text(footer, width/2, height-10, 12, false, footerColor, alignCenter)

	return c.img, nil
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// gradient fills rect with a two stop gradient running from the top-left
// to the bottom-right corner.
func (c *canvas) gradient(rect image.Rectangle, from, to color.Color) {
	start, _ := colorful.MakeColor(from)
	end, _ := colorful.MakeColor(to)

	w, h := float64(rect.Dx()), float64(rect.Dy())
	norm := w*w + h*h
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			t := 0.0
			if norm > 0 {
				t = (float64(x-rect.Min.X)*w + float64(y-rect.Min.Y)*h) / norm
			}
			cr, cg, cb := start.BlendRgb(end, utils.Clamp(t, 0, 1)).RGB255()
			c.img.SetNRGBA(x, y, color.NRGBA{R: cr, G: cg, B: cb, A: 0xff})
		}
	}
}

// stroke outlines rect with a line of the given width centered on its edges,
// the way a canvas strokeRect does on integer coordinates.
// The four bands never overlap, so translucent colors are blended only once.
func (c *canvas) stroke(rect image.Rectangle, width int, col color.Color) {
	outer := rect.Inset(-width / 2)
	inner := outer.Inset(width)
	src := image.NewUniform(col)

	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	}
	for _, b := range bands {
		draw.Draw(c.img, b, src, image.Point{}, draw.Over)
	}
}

// contrastColor returns the label color readable on top of the fill.
func contrastColor(fill color.Color) color.Color {
	cf, _ := colorful.MakeColor(fill)
	l, _, _ := cf.Lab()
	if l > 0.6 {
		return inkColor
	}
	return color.White
}

// truncate shortens s to n characters, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// parseColors converts the color sequence into drawable colors.
func parseColors(colors []Color) ([]color.NRGBA, error) {
	if len(colors) == 0 {
		return nil, ErrNothingToRender
	}
	fills := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		fill, err := utils.HexToRGBA(string(c))
		if err != nil {
			return nil, fmt.Errorf("color %d: %w", i+1, err)
		}
		fills[i] = fill
	}
	return fills, nil
}
