// Package config loads the default options of the colorcipher command line tool
// from a YAML file. All values are optional; flags given on the command line
// always override them.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents a colorcipher.yaml configuration file.
type Config struct {
	Mode    string  `yaml:"mode"`
	Layout  string  `yaml:"layout"`
	Format  string  `yaml:"format"`
	Zoom    float64 `yaml:"zoom"`
	Workers int     `yaml:"workers"`
	Debug   bool    `yaml:"debug"`
	Palette bool    `yaml:"palette"`
	HTML    bool    `yaml:"html"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:   "encode",
		Layout: "detailed",
		Format: "png",
		Zoom:   1,
	}
}

// Load reads the configuration file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read the config file: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, rejecting unknown keys, and validates the result.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the enumerated values and ranges.
func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case "encode", "decode", "extract":
	default:
		errs = append(errs, fmt.Errorf("mode must be encode, decode or extract, got %q", c.Mode))
	}
	switch c.Layout {
	case "detailed", "simple":
	default:
		errs = append(errs, fmt.Errorf("layout must be detailed or simple, got %q", c.Layout))
	}
	switch c.Format {
	case "png", "jpg", "jpeg", "bmp":
	default:
		errs = append(errs, fmt.Errorf("format must be png, jpg or bmp, got %q", c.Format))
	}
	if c.Zoom < 0.25 || c.Zoom > 4 {
		errs = append(errs, fmt.Errorf("zoom must be between 0.25 and 4, got %v", c.Zoom))
	}
	if c.Layout == "simple" {
		if c.Format == "jpg" || c.Format == "jpeg" {
			errs = append(errs, errors.New("the simple layout can only be exported as png or bmp"))
		}
		if c.Zoom < 1 {
			errs = append(errs, fmt.Errorf("the simple layout can't be zoomed below 1, got %v", c.Zoom))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers can't be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// Override copies the flags explicitly set on the command line into the configuration.
// Flags left to their default value don't touch the values loaded from the file.
func (c *Config) Override(fs *flag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *flag.Flag) {
		val := f.Value.String()
		var err error
		switch f.Name {
		case "mode":
			c.Mode = val
		case "layout":
			c.Layout = val
		case "format":
			c.Format = val
		case "zoom":
			c.Zoom, err = strconv.ParseFloat(val, 64)
		case "conc":
			c.Workers, err = strconv.Atoi(val)
		case "debug":
			c.Debug, err = strconv.ParseBool(val)
		case "palette":
			c.Palette, err = strconv.ParseBool(val)
		case "html":
			c.HTML, err = strconv.ParseBool(val)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("flag -%s: %w", f.Name, err))
		}
	})
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return c.Validate()
}
