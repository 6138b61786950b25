// Package config loads and validates a convolution run configuration:
// the input/kernel shapes, convolution parameters and random seed the
// CLI harness needs to generate inputs and invoke both implementations.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/itohio/atallax/pkg/atallax"
	"github.com/itohio/atallax/x/options"
)

// RunConfig is the YAML-serialisable description of one harness run.
// Batch size is always 1 and is not configurable, per the design.
type RunConfig struct {
	CIn  int `yaml:"c_in"`
	H    int `yaml:"h"`
	W    int `yaml:"w"`
	COut int `yaml:"c_out"`
	KH   int `yaml:"k_h"`
	KW   int `yaml:"k_w"`

	Stride   int `yaml:"stride"`
	Padding  int `yaml:"padding"`
	Dilation int `yaml:"dilation"`

	Seed int64 `yaml:"seed"`
}

// Option mutates a *RunConfig; ApplyOptions in x/options drives them.
type Option = options.Option

// Default returns the "tiny identity" scenario's shape as a sane
// starting point: Load decodes a file on top of it, and callers can use
// it as a baseline before applying Options.
func Default() *RunConfig {
	return &RunConfig{
		CIn: 2, H: 5, W: 5,
		COut: 2, KH: 3, KW: 3,
		Stride: 1, Padding: 0, Dilation: 1,
		Seed: 1,
	}
}

// WithSeed overrides the random seed.
func WithSeed(seed int64) Option {
	return func(cfg interface{}) {
		cfg.(*RunConfig).Seed = seed
	}
}

// WithParams overrides stride, padding and dilation together.
func WithParams(stride, padding, dilation int) Option {
	return func(cfg interface{}) {
		c := cfg.(*RunConfig)
		c.Stride = stride
		c.Padding = padding
		c.Dilation = dilation
	}
}

// Load reads a RunConfig from a YAML file at path, applies opts on top
// of the decoded values, and validates the result.
func Load(path string, opts ...Option) (*RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	options.ApplyOptions(cfg, opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations Conv2D would reject anyway, so the
// harness can report a clean error before allocating tensors.
func (c *RunConfig) Validate() error {
	if c.CIn <= 0 || c.H <= 0 || c.W <= 0 {
		return fmt.Errorf("config: input shape (c_in=%d, h=%d, w=%d) must be positive", c.CIn, c.H, c.W)
	}
	if c.COut <= 0 || c.KH <= 0 || c.KW <= 0 {
		return fmt.Errorf("config: kernel shape (c_out=%d, k_h=%d, k_w=%d) must be positive", c.COut, c.KH, c.KW)
	}
	if c.Stride <= 0 {
		return fmt.Errorf("config: stride must be positive, got %d", c.Stride)
	}
	if c.Padding < 0 {
		return fmt.Errorf("config: padding must be non-negative, got %d", c.Padding)
	}
	return nil
}

// Params extracts the atallax.Params this run config describes, with
// dilation normalisation already applied.
func (c *RunConfig) Params() atallax.Params {
	return atallax.Params{Stride: c.Stride, Padding: c.Padding, Dilation: c.Dilation}.Normalized()
}
