package colorcipher

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/esimov/colorcipher/utils"
	"go.uber.org/zap"
)

// Processor options
type Processor struct {
	Mode     Mode
	Layout   Layout
	Format   Format
	Zoom     float64
	Extract  bool // the source is a simple layout image to be read back into text
	Logger   *zap.Logger
	Spinner  *utils.Spinner
	Renderer *Renderer
	// Now stamps the names of the exported files. Defaults to time.Now.
	Now func() time.Time

	once    sync.Once
	initErr error
}

// init prepares the shared renderer and logger.
func (p *Processor) init() error {
	p.once.Do(func() {
		if p.Logger == nil {
			p.Logger = zap.NewNop()
		}
		if p.Renderer == nil {
			p.Renderer, p.initErr = NewRenderer()
		}
	})
	return p.initErr
}

// Process reads the raw input from r and writes the result into w.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
//
// In encode and decode mode the palette image is written into w; in extract mode
// w receives the text recovered from the palette image.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	_, err := p.ProcessResult(r, w)
	return err
}

// ProcessResult is like Process but also returns the result of the operation.
func (p *Processor) ProcessResult(r io.Reader, w io.Writer) (Result, error) {
	if err := p.init(); err != nil {
		return Result{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("unable to read the source: %w", err)
	}
	if p.Extract {
		return p.extract(data, w)
	}

	var renderErr error
	sess := NewSession(
		WithMode(p.Mode),
		WithLogger(p.Logger),
		WithObserver(func(res Result) {
			renderErr = p.render(res, w)
		}),
	)
	if err := sess.Process(string(data)); err != nil {
		return Result{}, err
	}
	if renderErr != nil {
		return Result{}, renderErr
	}
	return sess.Result(), nil
}

// Run reads the raw input from r and returns the result without rendering it.
func (p *Processor) Run(r io.Reader) (Result, error) {
	if err := p.init(); err != nil {
		return Result{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("unable to read the source: %w", err)
	}
	if p.Extract {
		return p.extract(data, io.Discard)
	}

	sess := NewSession(WithMode(p.Mode), WithLogger(p.Logger))
	if err := sess.Process(string(data)); err != nil {
		return Result{}, err
	}
	return sess.Result(), nil
}

// Image renders the result with the configured layout and zoom factor.
func (p *Processor) Image(res Result) (*image.NRGBA, error) {
	if err := p.init(); err != nil {
		return nil, err
	}
	img, err := p.Renderer.Render(p.Layout, res.Colors, res.Text, res.Mode)
	if err != nil {
		return nil, err
	}
	if p.Zoom != 0 && p.Zoom != 1 {
		if p.Layout == Simple && p.Zoom < 1 {
			return nil, fmt.Errorf("%w: %v", ErrSimpleZoom, p.Zoom)
		}
		img = Zoom(img, p.Zoom)
	}
	return img, nil
}

// Export reads the raw input from r, renders it and saves the image through s
// under a name carrying the layout, the mode and the current time.
// It returns the name of the saved file.
func (p *Processor) Export(r io.Reader, s Saver) (string, error) {
	if p.Extract {
		return "", errors.New("palette images can't be exported in extract mode")
	}
	res, err := p.Run(r)
	if err != nil {
		return "", err
	}
	img, err := p.Image(res)
	if err != nil {
		return "", err
	}
	return Export(s, img, p.Layout, res.Mode, p.Format, p.now())
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) render(res Result, w io.Writer) error {
	img, err := p.Image(res)
	if err != nil {
		return err
	}
	p.Logger.Debug("palette rendered",
		zap.Stringer("layout", p.Layout),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return encodeImg(p, w, img)
}

// extract reads the colors back from a simple layout image and decodes them into text.
func (p *Processor) extract(data []byte, w io.Writer) (Result, error) {
	img, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	colors, err := ExtractColors(img)
	if err != nil {
		return Result{}, err
	}

	hex := ColorsToHex(colors, true)
	res, err := DecodeHex(hex)
	if err != nil {
		return Result{}, err
	}
	// Keep the colors as they were read, padding included.
	res.Colors = colors
	res.Palette = BuildPalette(colors)
	res.Info = BuildInfo(res.Text, hex, colors, Decode)

	p.Logger.Debug("palette extracted", zap.Int("colors", len(colors)))
	if _, err := io.WriteString(w, res.Text); err != nil {
		return Result{}, fmt.Errorf("unable to write the decoded text: %w", err)
	}
	return res, nil
}

// encodeImg encodes an image to a destination of type io.Writer.
// When the destination is a file its extension selects the format,
// otherwise the configured format is used.
func encodeImg(p *Processor, w io.Writer, img image.Image) error {
	format := p.Format
	if f, ok := w.(*os.File); ok {
		if ext := filepath.Ext(f.Name()); ext != "" {
			var err error
			if format, err = ParseFormat(ext); err != nil {
				return err
			}
		}
	}
	if err := CheckFormat(p.Layout, format); err != nil {
		return err
	}
	return EncodeImage(w, img, format)
}
