// Package gemm defines the Atallax GEMM intrinsic's contract (component
// A of the design) and a scalar reference implementation of it. The
// intrinsic is a capability the orchestrator is polymorphic over: the
// test harness wires Scalar, a real target wires a hardware-backed
// Engine.
package gemm

// Engine computes sc_C[m,n] += sum_k sc_A[m,k]*sc_B[k,n] over the full
// tm x tn x tk cube. All three buffers are row-major; tile sizes
// smaller than the systolic array's native 32 are accepted but not
// required to be efficient.
type Engine interface {
	Compute(c, a, b []float32, tm, tn, tk int)
}

// Scalar is a bit-correct, non-vectorized reference GEMM, in the style
// of a BLAS GEMM_NN kernel with c, a, b addressed at their natural
// leading dimensions (tn, tk, tn respectively, since every Atallax tile
// is dense and contiguous).
type Scalar struct{}

// Compute implements Engine.
func (Scalar) Compute(c, a, b []float32, tm, tn, tk int) {
	if tm == 0 || tn == 0 || tk == 0 {
		return
	}

	for m := 0; m < tm; m++ {
		aRow := a[m*tk : m*tk+tk]
		cRow := c[m*tn : m*tn+tn]

		for n := 0; n < tn; n++ {
			var sum float32
			pb := n

			k := 0
			for ; k+4 <= tk; k += 4 {
				sum += aRow[k]*b[pb] + aRow[k+1]*b[pb+tn] + aRow[k+2]*b[pb+2*tn] + aRow[k+3]*b[pb+3*tn]
				pb += 4 * tn
			}
			for ; k < tk; k++ {
				sum += aRow[k] * b[pb]
				pb += tn
			}

			cRow[n] += sum
		}
	}
}
