// Package atallax implements the tiling orchestrator for a direct
// convolution expressed as a sequence of tiled GEMMs: the im2col
// transform runs on-the-fly inside scratchpad using only vector-core
// primitives, the GEMM itself is an opaque, pluggable intrinsic.
package atallax

import (
	"fmt"

	"github.com/itohio/atallax/pkg/atallax/dma"
	"github.com/itohio/atallax/pkg/atallax/gemm"
	"github.com/itohio/atallax/pkg/atallax/im2col"
	"github.com/itohio/atallax/pkg/atallax/scratchpad"
	"github.com/itohio/atallax/pkg/logger"
	"github.com/itohio/atallax/pkg/tensor"
)

// Conv2D is the single public entry point: output, input and kernel are
// all caller-allocated. On success output's {n,c,h,w} fields are set to
// the derived shape and its buffer is grown and filled with the
// result. On failure output is left unmodified and an error
// describing the rejected configuration is returned.
func Conv2D(output, input *tensor.Tensor, kernel *tensor.Kernel, params Params, eng gemm.Engine) error {
	params = params.Normalized()

	if input.N != 1 {
		return fmt.Errorf("Conv2D: %w: got n=%d", ErrUnsupportedBatch, input.N)
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("Conv2D: invalid input: %w", err)
	}
	if err := kernel.Validate(); err != nil {
		return fmt.Errorf("Conv2D: invalid kernel: %w", err)
	}
	if kernel.CIn != input.C {
		return fmt.Errorf("Conv2D: kernel c_in %d does not match input channels %d", kernel.CIn, input.C)
	}
	if params.Stride < 1 {
		return fmt.Errorf("Conv2D: stride must be positive, got %d", params.Stride)
	}
	if params.Padding < 0 {
		return fmt.Errorf("Conv2D: padding must be non-negative, got %d", params.Padding)
	}

	kEffH := EffectiveKernelSize(kernel.KH, params.Dilation)
	kEffW := EffectiveKernelSize(kernel.KW, params.Dilation)
	if kEffH > scratchpad.SpatialH || kEffW > scratchpad.SpatialW {
		return fmt.Errorf("Conv2D: %w: effective kernel %dx%d exceeds spatial tile %dx%d",
			ErrTileOverflow, kEffH, kEffW, scratchpad.SpatialH, scratchpad.SpatialW)
	}

	oh := OutputDim(input.H, kernel.KH, params.Stride, params.Padding, params.Dilation)
	ow := OutputDim(input.W, kernel.KW, params.Stride, params.Padding, params.Dilation)
	if oh <= 0 || ow <= 0 {
		return fmt.Errorf("Conv2D: derived output shape %dx%d is non-positive", oh, ow)
	}

	output.N, output.C, output.H, output.W = 1, kernel.COut, oh, ow
	size := output.Size()
	if len(output.Data) < size {
		output.Data = make([]float32, size)
	} else {
		clear(output.Data[:size])
	}

	n := kernel.COut
	k := kernel.CIn * kernel.KH * kernel.KW

	blkH := max(1, (scratchpad.SpatialH-kEffH)/params.Stride+1)
	blkW := max(1, (scratchpad.SpatialW-kEffW)/params.Stride+1)

	bFlat := dma.FlattenKernel(kernel)
	pad := scratchpad.NewPad(kernel.CIn, scratchpad.SpatialH, scratchpad.SpatialW)

	icParams := im2col.Params{
		CIn: kernel.CIn, KH: kernel.KH, KW: kernel.KW,
		Dilation: params.Dilation,
		TH:       scratchpad.SpatialH, TW: scratchpad.SpatialW,
	}

	logger.Log.Debug().Int("oh", oh).Int("ow", ow).Int("n", n).Int("k", k).Msg("conv2d: begin")

	for hBlock := 0; hBlock < oh; hBlock += blkH {
		rowsInBlock := min(blkH, oh-hBlock)
		for wBlock := 0; wBlock < ow; wBlock += blkW {
			colsInBlock := min(blkW, ow-wBlock)

			h0 := hBlock*params.Stride - params.Padding
			w0 := wBlock*params.Stride - params.Padding
			pad.ZeroRaw()
			dma.LoadSpatialTile(pad.Raw, input, h0, w0, scratchpad.SpatialH, scratchpad.SpatialW)

			patches := make([][2]int, 0, rowsInBlock*colsInBlock)
			for lo := 0; lo < rowsInBlock; lo++ {
				for wo := 0; wo < colsInBlock; wo++ {
					patches = append(patches, [2]int{hBlock + lo, wBlock + wo})
				}
			}

			for j := 0; j < n; j += scratchpad.TileN {
				validCols := min(scratchpad.TileN, n-j)

				for batchStart := 0; batchStart < len(patches); batchStart += scratchpad.TileM {
					batch := patches[batchStart:min(batchStart+scratchpad.TileM, len(patches))]
					pad.ZeroC()

					for kStart := 0; kStart < k; kStart += scratchpad.TileK {
						dma.LoadBTile(pad.B[:], bFlat, k, n, kStart, j, scratchpad.TileK, scratchpad.TileN)

						for mi := 0; mi < scratchpad.TileM; mi++ {
							row := pad.ARow(mi)
							if mi >= len(batch) {
								clear(row)
								continue
							}
							p := batch[mi]
							gh0 := p[0]*params.Stride - params.Padding
							gw0 := p[1]*params.Stride - params.Padding
							im2col.FillRow(row, pad.Raw, icParams, gh0-h0, gw0-w0, kStart, scratchpad.TileK)
						}

						eng.Compute(pad.C[:], pad.A[:], pad.B[:], scratchpad.TileM, scratchpad.TileN, scratchpad.TileK)
					}

					dma.StoreCTile(output, pad.C[:], batch, len(batch), j, validCols, scratchpad.TileM, scratchpad.TileN)
				}
			}
		}
	}

	logger.Log.Info().Msg("conv2d: done")
	return nil
}
