package colorcipher

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/esimov/colorcipher/utils"
)

// PaletteEntry is the display projection of one color of the sequence.
type PaletteEntry struct {
	Color Color
	Index int    // 1-based position in the sequence
	Hex   string // '#' followed by the uppercase color digits
}

// BuildPalette returns one entry per color, in sequence order.
func BuildPalette(colors []Color) []PaletteEntry {
	entries := make([]PaletteEntry, len(colors))
	for i, c := range colors {
		entries[i] = PaletteEntry{
			Color: c,
			Index: i + 1,
			Hex:   c.Hex(),
		}
	}
	return entries
}

// Info summarizes the last operation.
type Info struct {
	Mode      Mode
	Chars     int
	HexLength int
	Colors    int
	Bytes     int
	// Ratio holds the characters per color, rounded to one decimal place.
	// It is only meaningful when HasRatio is set: encode mode with at least one color.
	Ratio    float64
	HasRatio bool
}

// BuildInfo derives the summary of an operation from its primary text, hex string and colors.
func BuildInfo(primaryText, hex string, colors []Color, mode Mode) Info {
	info := Info{
		Mode:      mode,
		Chars:     utf8.RuneCountInString(primaryText),
		HexLength: len(hex),
		Colors:    len(colors),
		Bytes:     utils.CeilDiv(len(hex), 2),
	}
	if mode == Encode && info.Colors > 0 {
		info.Ratio = math.Round(float64(info.Chars)/float64(info.Colors)*10) / 10
		info.HasRatio = true
	}
	return info
}

// RatioString returns the ratio in the "n.n:1" form, or "n/a" when there is no ratio.
func (i Info) RatioString() string {
	if !i.HasRatio {
		return "n/a"
	}
	return fmt.Sprintf("%.1f:1", i.Ratio)
}

// String lists the summary fields one per line.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Characters: %d\n", i.Chars)
	fmt.Fprintf(&sb, "Hex length: %d\n", i.HexLength)
	fmt.Fprintf(&sb, "Colors: %d\n", i.Colors)
	if i.Mode == Encode {
		fmt.Fprintf(&sb, "Ratio: %s\n", i.RatioString())
	}
	fmt.Fprintf(&sb, "Bytes: %d\n", i.Bytes)
	return sb.String()
}

// PaletteText returns the palette as a plain list of display colors.
func PaletteText(entries []PaletteEntry) string {
	var sb strings.Builder
	sb.WriteString("Color palette:\n")
	for _, e := range entries {
		sb.WriteString(e.Hex)
		sb.WriteByte('\n')
	}
	return sb.String()
}

var paletteTmpl = template.Must(template.New("palette").Parse(`<!-- Generated color palette -->
<div class="color-palette">
{{- range .}}
  <div class="color-box" style="background-color: {{.Hex}};">
    <span class="color-code">{{.Hex}}</span>
  </div>
{{- end}}
</div>

<style>
  .color-palette {
    display: flex;
    flex-wrap: wrap;
    gap: 10px;
    padding: 20px;
  }

  .color-box {
    width: 60px;
    height: 60px;
    border-radius: 8px;
    display: flex;
    align-items: center;
    justify-content: center;
  }

  .color-code {
    background: rgba(0,0,0,0.7);
    color: white;
    padding: 3px 6px;
    border-radius: 4px;
    font-size: 12px;
  }
</style>
`))

// PaletteHTML returns an HTML and CSS snippet reproducing the palette in a web page.
func PaletteHTML(entries []PaletteEntry) (string, error) {
	var sb strings.Builder
	if err := paletteTmpl.Execute(&sb, entries); err != nil {
		return "", fmt.Errorf("could not generate the palette markup: %w", err)
	}
	return sb.String(), nil
}
