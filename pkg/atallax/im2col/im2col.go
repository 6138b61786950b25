// Package im2col builds a single row of the GEMM-A matrix from the raw
// spatial tile already resident in scratchpad, using only the vector
// primitives in pkg/atallax/vecops — no scalar gather, except as an
// explicit fallback for dilated kernels. This is the component that
// makes the tiled-GEMM formulation of direct convolution possible
// without ever materialising im2col in DRAM.
package im2col

import "github.com/itohio/atallax/pkg/atallax/vecops"

// Params carries the shape constants FillRow needs across calls; none
// of it changes within one conv2d invocation.
type Params struct {
	CIn, KH, KW int
	Dilation    int
	TH, TW      int
}

// FillRow writes the window [kStart, kStart+tk) of the im2col row for
// the patch whose top-left corner sits at local tile coordinates
// (lh, lw) into dst (len tk must equal tk). For Dilation == 1 this
// runs the mask-shift-add sequence from the design; for Dilation > 1 it
// falls back to a direct scratchpad gather, since splitting a dilated
// kernel row into single-pixel loads would cost as much as gathering
// directly.
func FillRow(dst, scRaw []float32, p Params, lh, lw, kStart, tk int) {
	if p.Dilation > 1 {
		fillRowDilated(dst, scRaw, p, lh, lw, kStart, tk)
		return
	}
	fillRowVector(dst, scRaw, p, lh, lw, kStart, tk)
}

func fillRowVector(dst, scRaw []float32, p Params, lh, lw, kStart, tk int) {
	clear(dst)
	khkw := p.KH * p.KW

	cLo := kStart / khkw
	cHi := (kStart + tk + p.KW) / khkw
	if cLo < 0 {
		cLo = 0
	}
	if cHi >= p.CIn {
		cHi = p.CIn - 1
	}

	vRow := make([]float32, tk)
	placed := make([]float32, tk)
	mask := make([]bool, tk)
	vecops.CreateWindowMask(mask, p.KW)

	for c := cLo; c <= cHi; c++ {
		for kh := 0; kh < p.KH; kh++ {
			rh := lh + kh
			if rh < 0 || rh >= p.TH {
				continue
			}

			lwClamped := lw
			if lwClamped < 0 {
				lwClamped = 0
			}
			rowBase := c*p.TH*p.TW + rh*p.TW
			offset := rowBase + lwClamped
			valid := p.TW - lwClamped

			vecops.LoadRowSafe(vRow, scRaw, offset, valid)
			vecops.ApplyMask(vRow, mask)

			place := c*khkw + kh*p.KW - kStart
			switch {
			case place >= 0 && place < tk:
				// this row's window lands entirely within the
				// current T_K slice: shift right into place.
				vecops.Shift(placed, vRow, place, false)
				vecops.Add(dst, placed)
			case place > -p.KW && place < 0:
				// straddle: the window's tail belongs to this slice,
				// its head was already consumed by the previous one.
				vecops.Shift(placed, vRow, -place, true)
				vecops.Add(dst, placed)
			default:
				// window lies entirely outside this slice.
			}
		}
	}
}

// fillRowDilated gathers directly from the spatial tile rather than
// running the vector sequence, since a dilated kernel row is no longer
// contiguous in scratchpad.
func fillRowDilated(dst, scRaw []float32, p Params, lh, lw, kStart, tk int) {
	clear(dst)
	khkw := p.KH * p.KW

	for c := 0; c < p.CIn; c++ {
		planeBase := c * p.TH * p.TW
		for kh := 0; kh < p.KH; kh++ {
			rh := lh + kh*p.Dilation
			if rh < 0 || rh >= p.TH {
				continue
			}
			rowBase := planeBase + rh*p.TW
			for kw := 0; kw < p.KW; kw++ {
				rw := lw + kw*p.Dilation
				if rw < 0 || rw >= p.TW {
					continue
				}
				col := c*khkw + kh*p.KW + kw - kStart
				if col < 0 || col >= tk {
					continue
				}
				dst[col] += scRaw[rowBase+rw]
			}
		}
	}
}
