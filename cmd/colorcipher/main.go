package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/esimov/colorcipher"
	"github.com/esimov/colorcipher/config"
	"github.com/esimov/colorcipher/utils"
	"go.uber.org/zap"
)

const helpBanner = `
┌─┐┌─┐┬  ┌─┐┬─┐┌─┐┬┌─┐┬ ┬┌─┐┬─┐
│  │ ││  │ │├┬┘│  │├─┘├─┤├┤ ├┬┘
└─┘└─┘┴─┘└─┘┴└─└─┘┴┴  ┴ ┴└─┘┴└─

Text to color palette encoder.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination: a file, - for stdout, or a directory receiving a generated file name")
	configPath  = flag.String("config", "", "YAML file with the default options")
	mode        = flag.String("mode", "encode", "Operation mode: encode, decode or extract")
	layout      = flag.String("layout", "detailed", "Palette layout: detailed or simple")
	format      = flag.String("format", "png", "Image format used when writing to a pipe or a directory: png, jpg or bmp")
	zoom        = flag.Float64("zoom", 1, "Scale factor of the palette image (0.25-4)")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	palette     = flag.Bool("palette", false, "Print the palette colors")
	html        = flag.Bool("html", false, "Print the palette as an HTML snippet")
	debug       = flag.Bool("debug", false, "Log debug messages")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if err := cfg.Override(flag.CommandLine); err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	// Keep the worker count of the flag default when neither the file nor the flag set it.
	if cfg.Workers == 0 {
		cfg.Workers = *workers
	}

	proc, err := newProcessor(cfg)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	defer proc.Logger.Sync()

	op := &colorcipher.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  cfg.Workers,
	}

	if cfg.Palette || cfg.HTML {
		if err := report(proc, op, cfg); err != nil {
			log.Fatalf("%s %s",
				utils.DecorateText("\nError processing the input:", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		return
	}

	if err := proc.Execute(op); err != nil {
		log.Fatalf("%s %s",
			utils.DecorateText("\nError processing the input:", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
}

// newProcessor translates the configuration into processor options.
func newProcessor(cfg config.Config) (*colorcipher.Processor, error) {
	proc := &colorcipher.Processor{
		Zoom:   cfg.Zoom,
		Logger: utils.NewLogger(os.Stderr, cfg.Debug),
	}

	var err error
	if cfg.Mode == "extract" {
		proc.Extract = true
		proc.Mode = colorcipher.Decode
	} else if proc.Mode, err = colorcipher.ParseMode(cfg.Mode); err != nil {
		return nil, err
	}
	if proc.Layout, err = colorcipher.ParseLayout(cfg.Layout); err != nil {
		return nil, err
	}
	if proc.Format, err = colorcipher.ParseFormat(cfg.Format); err != nil {
		return nil, err
	}
	proc.Logger.Debug("options",
		zap.String("mode", cfg.Mode),
		zap.Stringer("layout", proc.Layout),
		zap.Stringer("format", proc.Format),
		zap.Float64("zoom", proc.Zoom),
	)
	return proc, nil
}

// report processes a single source and prints the palette as text or HTML
// on the standard output instead of writing an image.
func report(proc *colorcipher.Processor, op *colorcipher.Ops, cfg config.Config) error {
	var (
		res colorcipher.Result
		err error
	)
	if op.Src == pipeName {
		res, err = proc.Run(os.Stdin)
	} else {
		f, ferr := os.Open(op.Src)
		if ferr != nil {
			return fmt.Errorf("unable to open the source file: %w", ferr)
		}
		defer f.Close()
		res, err = proc.Run(f)
	}
	if err != nil {
		return err
	}

	if cfg.Palette {
		fmt.Print(colorcipher.PaletteText(res.Palette))
		fmt.Fprint(os.Stderr, "\n"+res.Info.String())
	}
	if cfg.HTML {
		markup, err := colorcipher.PaletteHTML(res.Palette)
		if err != nil {
			return err
		}
		fmt.Print(markup)
	}
	return nil
}
