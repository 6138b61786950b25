package atallax_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/atallax/pkg/atallax"
	"github.com/itohio/atallax/pkg/atallax/gemm"
	"github.com/itohio/atallax/pkg/refconv"
	"github.com/itohio/atallax/pkg/tensor"
)

const tolerance = 1e-4

func assertElementsClose(t *testing.T, want, got []float32) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		diff := want[i] - got[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Fatalf("element %d: got %v want %v (|delta|=%v)", i, got[i], want[i], diff)
		}
	}
}

func TestConv2DTinyIdentity(t *testing.T) {
	in := tensor.NewTensor(1, 2, 5, 5)
	for i := 0; i < 25; i++ {
		in.Data[i] = float32(i)
		in.Data[25+i] = float32(100 + i)
	}
	k := tensor.NewKernel(2, 2, 3, 3)
	k.Data[((0*2+0)*3+1)*3+1] = 1
	k.Data[((1*2+1)*3+1)*3+1] = 1

	out := tensor.NewTensor(0, 0, 0, 0)
	err := atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{})
	require.NoError(t, err)

	require.Equal(t, 3, out.H)
	require.Equal(t, 3, out.W)
	assertElementsClose(t, []float32{6, 7, 8, 11, 12, 13, 16, 17, 18}, out.Data[0:9])
	assertElementsClose(t, []float32{106, 107, 108, 111, 112, 113, 116, 117, 118}, out.Data[9:18])
}

func TestConv2DStrideTwo(t *testing.T) {
	in := tensor.NewTensor(1, 2, 5, 5)
	for i := 0; i < 25; i++ {
		in.Data[i] = float32(i)
		in.Data[25+i] = float32(100 + i)
	}
	k := tensor.NewKernel(2, 2, 3, 3)
	k.Data[((0*2+0)*3+1)*3+1] = 1
	k.Data[((1*2+1)*3+1)*3+1] = 1

	out := tensor.NewTensor(0, 0, 0, 0)
	err := atallax.Conv2D(out, in, k, atallax.Params{Stride: 2, Padding: 0, Dilation: 1}, gemm.Scalar{})
	require.NoError(t, err)

	require.Equal(t, 2, out.H)
	require.Equal(t, 2, out.W)
	assertElementsClose(t, []float32{6, 8, 16, 18}, out.Data[0:4])
}

func TestConv2DSamePadding(t *testing.T) {
	in := tensor.NewTensor(1, 1, 8, 8)
	for i := range in.Data {
		in.Data[i] = float32(i + 1)
	}
	k := tensor.NewKernel(1, 1, 3, 3)
	for i := range k.Data {
		k.Data[i] = 1
	}

	out := tensor.NewTensor(0, 0, 0, 0)
	err := atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 1, Dilation: 1}, gemm.Scalar{})
	require.NoError(t, err)

	require.Equal(t, 8, out.H)
	require.Equal(t, 8, out.W)
	corner := in.At(0, 0, 0, 0) + in.At(0, 0, 0, 1) + in.At(0, 0, 1, 0) + in.At(0, 0, 1, 1)
	assertElementsClose(t, []float32{corner}, []float32{out.At(0, 0, 0, 0)})
}

func TestConv2DIdentityKernelSelectsChannel(t *testing.T) {
	in := tensor.NewTensor(1, 2, 4, 4)
	for i := 0; i < 16; i++ {
		in.Data[i] = float32(i)
		in.Data[16+i] = float32(-i)
	}
	k := tensor.NewKernel(1, 2, 1, 1)
	k.Data[1] = 1 // selects c_in=1

	out := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{}))
	assertElementsClose(t, in.Data[16:32], out.Data[0:16])
}

func TestConv2DZeroInputAndKernel(t *testing.T) {
	in := tensor.NewTensor(1, 1, 6, 6)
	k := tensor.NewKernel(1, 1, 3, 3)
	out := tensor.NewTensor(0, 0, 0, 0)

	require.NoError(t, atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{}))
	for _, v := range out.Data[:out.Size()] {
		assert.Equal(t, float32(0), v)
	}
}

func TestConv2DLinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randTensor(rng, 2, 5, 5)
	y := randTensor(rng, 2, 5, 5)
	k := randKernel(rng, 3, 2, 3, 3)
	a, b := float32(1.7), float32(-0.5)

	combined := tensor.NewTensor(1, 2, 5, 5)
	for i := range combined.Data {
		combined.Data[i] = a*x.Data[i] + b*y.Data[i]
	}

	params := atallax.Params{Stride: 1, Padding: 1, Dilation: 1}
	outCombined := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(outCombined, combined, k, params, gemm.Scalar{}))

	outX := tensor.NewTensor(0, 0, 0, 0)
	outY := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(outX, x, k, params, gemm.Scalar{}))
	require.NoError(t, atallax.Conv2D(outY, y, k, params, gemm.Scalar{}))

	want := make([]float32, outX.Size())
	for i := range want {
		want[i] = a*outX.Data[i] + b*outY.Data[i]
	}
	assertElementsClose(t, want, outCombined.Data[:outCombined.Size()])
}

func TestConv2DBoundaryCorrectnessSquareKernel(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	in := randTensor(rng, 1, 4, 4)
	k := randKernel(rng, 1, 1, 4, 4)
	params := atallax.Params{Stride: 1, Padding: 3, Dilation: 1}

	got := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(got, in, k, params, gemm.Scalar{}))

	want := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, refconv.Conv2D(want, in, k, params))

	assertElementsClose(t, want.Data[:want.Size()], got.Data[:got.Size()])
}

func TestConv2DLargeRandomAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := randTensor(rng, 5, 128, 128)
	k := randKernel(rng, 4, 5, 4, 4)
	params := atallax.Params{Stride: 3, Padding: 1, Dilation: 1}

	got := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(got, in, k, params, gemm.Scalar{}))

	want := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, refconv.Conv2D(want, in, k, params))

	assertElementsClose(t, want.Data[:want.Size()], got.Data[:got.Size()])
}

func TestConv2DMultiBlockTileBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	in := randTensor(rng, 3, 64, 64)
	k := randKernel(rng, 8, 3, 3, 3)
	params := atallax.Params{Stride: 1, Padding: 0, Dilation: 1}

	got := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(got, in, k, params, gemm.Scalar{}))

	want := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, refconv.Conv2D(want, in, k, params))

	assertElementsClose(t, want.Data[:want.Size()], got.Data[:got.Size()])
}

func TestConv2DDilatedKernelAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	in := randTensor(rng, 2, 16, 16)
	k := randKernel(rng, 2, 2, 3, 3)
	params := atallax.Params{Stride: 1, Padding: 2, Dilation: 2}

	got := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(got, in, k, params, gemm.Scalar{}))

	want := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, refconv.Conv2D(want, in, k, params))

	assertElementsClose(t, want.Data[:want.Size()], got.Data[:got.Size()])
}

func TestConv2DRejectsBatchGreaterThanOne(t *testing.T) {
	in := tensor.NewTensor(2, 1, 4, 4)
	k := tensor.NewKernel(1, 1, 3, 3)
	out := tensor.NewTensor(0, 0, 0, 0)

	err := atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{})
	assert.ErrorIs(t, err, atallax.ErrUnsupportedBatch)
}

func TestConv2DRejectsOversizedKernelFootprint(t *testing.T) {
	in := tensor.NewTensor(1, 1, 40, 40)
	k := tensor.NewKernel(1, 1, 33, 33)
	out := tensor.NewTensor(0, 0, 0, 0)

	err := atallax.Conv2D(out, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{})
	assert.ErrorIs(t, err, atallax.ErrTileOverflow)
}

func TestConv2DNormalisesNonPositiveDilation(t *testing.T) {
	in := tensor.NewTensor(1, 1, 5, 5)
	k := tensor.NewKernel(1, 1, 3, 3)
	k.Data[4] = 1

	outA := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(outA, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 0}, gemm.Scalar{}))

	outB := tensor.NewTensor(0, 0, 0, 0)
	require.NoError(t, atallax.Conv2D(outB, in, k, atallax.Params{Stride: 1, Padding: 0, Dilation: 1}, gemm.Scalar{}))

	assertElementsClose(t, outB.Data[:outB.Size()], outA.Data[:outA.Size()])
}

func randTensor(rng *rand.Rand, c, h, w int) *tensor.Tensor {
	t := tensor.NewTensor(1, c, h, w)
	for i := range t.Data {
		t.Data[i] = rng.Float32()*2 - 1
	}
	return t
}

func randKernel(rng *rand.Rand, cout, cin, kh, kw int) *tensor.Kernel {
	k := tensor.NewKernel(cout, cin, kh, kw)
	for i := range k.Data {
		k.Data[i] = rng.Float32()*2 - 1
	}
	return k
}
