package colorcipher

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"
)

// Saver stores the bytes of an exported file under the given name.
type Saver interface {
	Save(name string, data []byte) error
}

// DirSaver saves the exported files into a directory, creating it when missing.
type DirSaver struct {
	Dir string
}

// Save writes data into Dir/name.
func (d DirSaver) Save(name string, data []byte) error {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, 0644); err != nil {
		return fmt.Errorf("unable to save %s: %w", name, err)
	}
	return nil
}

// ExportName builds the file name of an export. It embeds the layout,
// the mode and the Unix time in milliseconds, e.g. visual-cipher-simple-encode-1700000000000.png.
func ExportName(layout Layout, mode Mode, format Format, t time.Time) string {
	return fmt.Sprintf("visual-cipher-%s-%s-%d.%s", layout, mode, t.UnixMilli(), format.Ext())
}

// ErrLossyLayout is returned when the simple layout is asked for a lossy format.
var ErrLossyLayout = errors.New("the simple layout can only be exported in a lossless format")

// CheckFormat reports whether the layout can be encoded with the format.
// The simple layout is the machine readable one: it is read back with
// ExtractColors, so it needs exact pixel values.
func CheckFormat(layout Layout, format Format) error {
	if layout == Simple && !format.Lossless() {
		return fmt.Errorf("%w: %s", ErrLossyLayout, format)
	}
	return nil
}

// Export encodes the rendered canvas and hands it to the saver.
// It returns the name of the saved file.
func Export(s Saver, img image.Image, layout Layout, mode Mode, format Format, t time.Time) (string, error) {
	if err := CheckFormat(layout, format); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, format); err != nil {
		return "", err
	}
	name := ExportName(layout, mode, format, t)
	if err := s.Save(name, buf.Bytes()); err != nil {
		return "", err
	}
	return name, nil
}
