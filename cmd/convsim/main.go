// Command convsim is the CLI harness: it allocates tensors per a run
// configuration, seeds a random input, runs both the tiled-GEMM
// orchestrator and the direct reference convolution, and compares the
// two element-wise within tolerance.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/chewxy/math32"
	"github.com/rs/zerolog"

	"github.com/itohio/atallax/internal/config"
	"github.com/itohio/atallax/pkg/atallax"
	"github.com/itohio/atallax/pkg/atallax/gemm"
	"github.com/itohio/atallax/pkg/logger"
	"github.com/itohio/atallax/pkg/refconv"
	"github.com/itohio/atallax/pkg/tensor"
)

const tolerance = 1e-4

func main() {
	help := flag.Bool("help", false, "Help")
	configPath := flag.String("config", "", "Path to a YAML run configuration; when set, the shape flags below are ignored and -stride/-padding/-dilation/-seed are applied over the file's values")
	cIn := flag.Int("c_in", 2, "Input channels")
	h := flag.Int("h", 5, "Input height")
	w := flag.Int("w", 5, "Input width")
	cOut := flag.Int("c_out", 2, "Output channels")
	kh := flag.Int("k_h", 3, "Kernel height")
	kw := flag.Int("k_w", 3, "Kernel width")
	stride := flag.Int("stride", 1, "Stride")
	padding := flag.Int("padding", 0, "Padding")
	dilation := flag.Int("dilation", 1, "Dilation")
	seed := flag.Int64("seed", 1, "Random seed")
	quiet := flag.Bool("quiet", false, "Suppress info-level logging")

	flag.Parse()

	if *help {
		flag.PrintDefaults()
		return
	}

	if *quiet {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	cfg, err := resolveConfig(*configPath, *cIn, *h, *w, *cOut, *kh, *kw, *stride, *padding, *dilation, *seed)
	if err != nil {
		logger.Log.Error().Err(err).Msg("convsim: invalid configuration")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		logger.Log.Error().Err(err).Msg("convsim: run failed")
		os.Exit(1)
	}
}

func resolveConfig(path string, cIn, h, w, cOut, kh, kw, stride, padding, dilation int, seed int64) (*config.RunConfig, error) {
	if path != "" {
		return config.Load(path, config.WithSeed(seed), config.WithParams(stride, padding, dilation))
	}
	cfg := &config.RunConfig{
		CIn: cIn, H: h, W: w,
		COut: cOut, KH: kh, KW: kw,
		Stride: stride, Padding: padding, Dilation: dilation,
		Seed: seed,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.RunConfig) error {
	rng := rand.New(rand.NewSource(cfg.Seed))

	in := tensor.NewTensor(1, cfg.CIn, cfg.H, cfg.W)
	for i := range in.Data {
		in.Data[i] = rng.Float32()*2 - 1
	}
	k := tensor.NewKernel(cfg.COut, cfg.CIn, cfg.KH, cfg.KW)
	for i := range k.Data {
		k.Data[i] = rng.Float32()*2 - 1
	}

	params := cfg.Params()

	logger.Log.Info().
		Int("c_in", cfg.CIn).Int("h", cfg.H).Int("w", cfg.W).
		Int("c_out", cfg.COut).Int("k_h", cfg.KH).Int("k_w", cfg.KW).
		Int("stride", params.Stride).Int("padding", params.Padding).Int("dilation", params.Dilation).
		Msg("convsim: running")

	got := tensor.NewTensor(0, 0, 0, 0)
	if err := atallax.Conv2D(got, in, k, params, gemm.Scalar{}); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	want := tensor.NewTensor(0, 0, 0, 0)
	if err := refconv.Conv2D(want, in, k, params); err != nil {
		return fmt.Errorf("reference: %w", err)
	}

	mismatches := compare(want.Data[:want.Size()], got.Data[:got.Size()])
	if len(mismatches) == 0 {
		logger.Log.Info().Msg("convsim: match")
		return nil
	}

	report(mismatches)
	return fmt.Errorf("%d of %d elements exceeded tolerance %v", len(mismatches), want.Size(), tolerance)
}

type mismatch struct {
	index     int
	got, want float32
	absDelta  float32
}

func compare(want, got []float32) []mismatch {
	var out []mismatch
	for i := range want {
		delta := math32.Abs(want[i] - got[i])
		if delta > tolerance {
			out = append(out, mismatch{index: i, got: got[i], want: want[i], absDelta: delta})
		}
	}
	return out
}

func report(mismatches []mismatch) {
	n := len(mismatches)
	if n > 10 {
		n = 10
	}
	for _, m := range mismatches[:n] {
		fmt.Printf("index=%d got=%v want=%v |delta|=%v\n", m.index, m.got, m.want, m.absDelta)
	}
	if len(mismatches) > n {
		fmt.Printf("... and %d more\n", len(mismatches)-n)
	}
}
