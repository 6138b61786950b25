// Package vecops implements the short-vector core primitives of the
// Atallax accelerator: row loads with trailing zero-fill, window masks,
// logical shifts, and element-wise add. These are the only operations
// the im2col stage (pkg/atallax/im2col) is allowed to use to build a
// GEMM-A row from the raw spatial tile in scratchpad.
//
// Every primitive is free of aliasing: source and destination must be
// distinct slices unless a function says otherwise.
package vecops

// LoadRowSafe fills dst[i] = base[offset+i] for 0 <= i < min(valid, len(dst)),
// and zero-fills the remaining lanes of dst. valid < 0 is treated as 0.
//
// offset is presumed in-bounds of base by construction (the caller has
// already placed it inside the scratchpad row); valid is the row-width
// guard that stops the load from spilling into the next logical row.
func LoadRowSafe(dst, base []float32, offset, valid int) {
	if valid < 0 {
		valid = 0
	}
	n := len(dst)
	if valid < n {
		n = valid
	}
	copy(dst[:n], base[offset:offset+n])
	clear(dst[n:])
}

// CreateWindowMask sets dst[i] = i < window for every lane, with lanes at
// or beyond window cleared.
func CreateWindowMask(dst []bool, window int) {
	for i := range dst {
		dst[i] = i < window
	}
}

// ApplyMask zeroes lanes of v where m is false, leaving the others
// unchanged. len(m) must be >= len(v).
func ApplyMask(v []float32, m []bool) {
	for i := range v {
		if !m[i] {
			v[i] = 0
		}
	}
}

// Shift produces dst as a logical shift of src by amount lanes, never
// aliasing src (dst and src must be distinct slices).
//
// left=true is "align": dst[i] = src[i+amount], or 0 when i+amount is
// out of range. left=false is "place": dst[i] = src[i-amount], or 0
// otherwise. amount < 0 is treated as 0.
func Shift(dst, src []float32, amount int, left bool) {
	n := len(dst)
	if amount < 0 {
		amount = 0
	}
	if left {
		for i := 0; i < n; i++ {
			j := i + amount
			if j >= 0 && j < len(src) {
				dst[i] = src[j]
			} else {
				dst[i] = 0
			}
		}
		return
	}
	for i := 0; i < n; i++ {
		j := i - amount
		if j >= 0 && j < len(src) {
			dst[i] = src[j]
		} else {
			dst[i] = 0
		}
	}
}

// Add accumulates dst[i] += src[i] for every lane. len(src) must be >= len(dst).
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}
