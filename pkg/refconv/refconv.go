// Package refconv is the external "golden" reference used only to
// verify the tiled-GEMM orchestrator in pkg/atallax: a direct
// nested-loop convolution (six loops; there is no batch loop since n is
// always 1) with no scratchpad, no tiling, and no GEMM reformulation.
package refconv

import (
	"fmt"

	"github.com/itohio/atallax/pkg/atallax"
	"github.com/itohio/atallax/pkg/tensor"
)

// Conv2D computes output = conv(input, kernel, params) by direct
// accumulation over (c_out, o_h, o_w, c_in, k_h, k_w), with the same
// coordinate math as pkg/atallax. It shares nothing with the
// orchestrator's implementation and exists solely so tests can compare
// the two independently derived results.
func Conv2D(output, input *tensor.Tensor, kernel *tensor.Kernel, params atallax.Params) error {
	params = params.Normalized()

	if input.N != 1 {
		return fmt.Errorf("refconv: only batch size n=1 is supported, got %d", input.N)
	}
	if kernel.CIn != input.C {
		return fmt.Errorf("refconv: kernel c_in %d does not match input channels %d", kernel.CIn, input.C)
	}

	oh := atallax.OutputDim(input.H, kernel.KH, params.Stride, params.Padding, params.Dilation)
	ow := atallax.OutputDim(input.W, kernel.KW, params.Stride, params.Padding, params.Dilation)
	if oh <= 0 || ow <= 0 {
		return fmt.Errorf("refconv: derived output shape %dx%d is non-positive", oh, ow)
	}

	output.N, output.C, output.H, output.W = 1, kernel.COut, oh, ow
	size := output.Size()
	if len(output.Data) < size {
		output.Data = make([]float32, size)
	} else {
		clear(output.Data[:size])
	}

	for co := 0; co < kernel.COut; co++ {
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				var sum float32
				for ci := 0; ci < kernel.CIn; ci++ {
					for kh := 0; kh < kernel.KH; kh++ {
						iy := oy*params.Stride + kh*params.Dilation - params.Padding
						if iy < 0 || iy >= input.H {
							continue
						}
						for kw := 0; kw < kernel.KW; kw++ {
							ix := ox*params.Stride + kw*params.Dilation - params.Padding
							if ix < 0 || ix >= input.W {
								continue
							}
							sum += input.At(0, ci, iy, ix) * kernel.At(co, ci, kh, kw)
						}
					}
				}
				output.Set(0, co, oy, ox, sum)
			}
		}
	}
	return nil
}
