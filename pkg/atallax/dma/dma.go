// Package dma implements the three bulk-copy paths between DRAM
// (represented by pkg/tensor buffers) and scratchpad: the spatial tile
// load, the kernel flattener, and the B-tile load / C-tile store pair.
// None of these touch the vector core; they are plain strided copies
// with bounds checks.
package dma

import "github.com/itohio/atallax/pkg/tensor"

// LoadSpatialTile copies the C_in x T_h x T_w block of in starting at
// global coordinate (h0, w0) into dst, zero-filling every coordinate
// that falls outside the input tensor or inside the padding band. h0
// and w0 may be negative. dst must be sized C_in*tH*tW and is fully
// overwritten.
func LoadSpatialTile(dst []float32, in *tensor.Tensor, h0, w0, tH, tW int) {
	cIn := in.C
	for c := 0; c < cIn; c++ {
		planeBase := c * tH * tW
		for lh := 0; lh < tH; lh++ {
			gh := h0 + lh
			rowBase := planeBase + lh*tW
			if gh < 0 || gh >= in.H {
				clear(dst[rowBase : rowBase+tW])
				continue
			}
			for lw := 0; lw < tW; lw++ {
				gw := w0 + lw
				if gw < 0 || gw >= in.W {
					dst[rowBase+lw] = 0
					continue
				}
				dst[rowBase+lw] = in.At(0, c, gh, gw)
			}
		}
	}
}

// FlattenKernel allocates and returns B_flat, a (K x N) row-major matrix
// with B_flat[k*N+n] = kernel[n, c, r, w], where (c, r, w) is the
// decomposition of k in mixed radix (C_in, K_h, K_w). Called once per
// conv2d invocation; the caller owns the returned slice's lifetime.
func FlattenKernel(k *tensor.Kernel) []float32 {
	kDim := k.CIn * k.KH * k.KW
	n := k.COut
	flat := make([]float32, kDim*n)

	khkw := k.KH * k.KW
	for kFlat := 0; kFlat < kDim; kFlat++ {
		c := kFlat / khkw
		rem := kFlat % khkw
		r := rem / k.KW
		w := rem % k.KW
		for out := 0; out < n; out++ {
			flat[kFlat*n+out] = k.At(out, c, r, w)
		}
	}
	return flat
}

// LoadBTile copies the [kStart, kStart+tk) x [nStart, nStart+tn) block
// of bFlat (a K x N row-major matrix) into dst, zero-filling lanes past
// K or N. dst must be sized tk*tn.
func LoadBTile(dst, bFlat []float32, kTotal, nTotal, kStart, nStart, tk, tn int) {
	for lk := 0; lk < tk; lk++ {
		gk := kStart + lk
		rowBase := lk * tn
		if gk >= kTotal {
			clear(dst[rowBase : rowBase+tn])
			continue
		}
		validN := nTotal - nStart
		if validN < 0 {
			validN = 0
		}
		if validN > tn {
			validN = tn
		}
		copy(dst[rowBase:rowBase+validN], bFlat[gk*nTotal+nStart:gk*nTotal+nStart+validN])
		clear(dst[rowBase+validN : rowBase+tn])
	}
}

// StoreCTile writes sc_C's rows back to the output tensor. Row m of
// sc_C corresponds to output patch patches[m] (a (o_h, o_w) pair);
// column n corresponds to output channel jStart+n. Rows at or past
// validRows, and columns at or past validCols (N - jStart), are not
// written. Coordinates outside the output tensor are silently skipped.
func StoreCTile(out *tensor.Tensor, scC []float32, patches [][2]int, validRows, jStart, validCols, tm, tn int) {
	rows := len(patches)
	if rows > validRows {
		rows = validRows
	}
	if rows > tm {
		rows = tm
	}
	cols := validCols
	if cols > tn {
		cols = tn
	}
	for m := 0; m < rows; m++ {
		oh, ow := patches[m][0], patches[m][1]
		if oh < 0 || oh >= out.H || ow < 0 || ow >= out.W {
			continue
		}
		rowBase := m * tn
		for n := 0; n < cols; n++ {
			ch := jStart + n
			if ch >= out.C {
				break
			}
			out.Set(0, ch, oh, ow, scC[rowBase+n])
		}
	}
}
