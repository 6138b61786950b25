package tensor

import "fmt"

// Tensor is the NCHW activation/output buffer. Only n == 1 is supported
// by the Atallax core; Validate rejects larger batches. Data is owned by
// the caller and is laid out row-major with strides (c*h*w, h*w, w, 1).
type Tensor struct {
	N, C, H, W int
	Data       []float32
}

// NewTensor allocates a zero-filled tensor of the given NCHW shape.
func NewTensor(n, c, h, w int) *Tensor {
	return &Tensor{N: n, C: c, H: h, W: w, Data: make([]float32, n*c*h*w)}
}

// FromFloat32 wraps an existing backing slice without copying. The slice
// must have at least n*c*h*w elements.
func FromFloat32(n, c, h, w int, data []float32) *Tensor {
	return &Tensor{N: n, C: c, H: h, W: w, Data: data}
}

// Shape returns the tensor's dimensions as a Shape.
func (t *Tensor) Shape() Shape {
	return NewShape(t.N, t.C, t.H, t.W)
}

// Strides returns the NCHW strides (c*h*w, h*w, w, 1).
func (t *Tensor) Strides() (sn, sc, sh, sw int) {
	sw = 1
	sh = t.W
	sc = t.H * t.W
	sn = t.C * t.H * t.W
	return
}

// Size returns n*c*h*w.
func (t *Tensor) Size() int {
	return t.N * t.C * t.H * t.W
}

// At returns the value at (n, c, h, w). It does not bounds-check; callers
// in the hot path are expected to have already established the
// coordinate is in range.
func (t *Tensor) At(n, c, h, w int) float32 {
	sn, sc, sh, sw := t.Strides()
	return t.Data[n*sn+c*sc+h*sh+w*sw]
}

// Set stores value at (n, c, h, w).
func (t *Tensor) Set(n, c, h, w int, value float32) {
	sn, sc, sh, sw := t.Strides()
	t.Data[n*sn+c*sc+h*sh+w*sw] = value
}

// Zero fills the tensor's backing buffer with zeros.
func (t *Tensor) Zero() {
	clear(t.Data)
}

// Validate rejects shapes the Atallax core cannot process: batch sizes
// other than 1, and non-positive dimensions.
func (t *Tensor) Validate() error {
	if t.N != 1 {
		return fmt.Errorf("tensor: unsupported batch size %d, only n=1 is supported", t.N)
	}
	if t.C <= 0 || t.H <= 0 || t.W <= 0 {
		return fmt.Errorf("tensor: non-positive dimension in shape %v", t.Shape())
	}
	if len(t.Data) < t.Size() {
		return fmt.Errorf("tensor: backing buffer has %d elements, need %d for shape %v", len(t.Data), t.Size(), t.Shape())
	}
	return nil
}

// Kernel is the convolution weight tensor, layout [cout, cin, kh, kw]
// row-major.
type Kernel struct {
	COut, CIn, KH, KW int
	Data              []float32
}

// NewKernel allocates a zero-filled kernel of the given shape.
func NewKernel(cout, cin, kh, kw int) *Kernel {
	return &Kernel{COut: cout, CIn: cin, KH: kh, KW: kw, Data: make([]float32, cout*cin*kh*kw)}
}

// Shape returns the kernel's dimensions as a Shape.
func (k *Kernel) Shape() Shape {
	return NewShape(k.COut, k.CIn, k.KH, k.KW)
}

// Size returns cout*cin*kh*kw.
func (k *Kernel) Size() int {
	return k.COut * k.CIn * k.KH * k.KW
}

// At returns kernel[cout, cin, kh, kw].
func (k *Kernel) At(cout, cin, kh, kw int) float32 {
	return k.Data[((cout*k.CIn+cin)*k.KH+kh)*k.KW+kw]
}

// Validate rejects non-positive dimensions.
func (k *Kernel) Validate() error {
	if k.COut <= 0 || k.CIn <= 0 || k.KH <= 0 || k.KW <= 0 {
		return fmt.Errorf("tensor: non-positive dimension in kernel shape %v", k.Shape())
	}
	if len(k.Data) < k.Size() {
		return fmt.Errorf("tensor: kernel buffer has %d elements, need %d for shape %v", len(k.Data), k.Size(), k.Shape())
	}
	return nil
}
