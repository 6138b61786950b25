// Package scratchpad holds the on-chip SRAM buffers a single conv2d
// invocation allocates and frees: the raw spatial tile (sc_RAW), the
// GEMM operands (sc_A, sc_B) and accumulator (sc_C). None of these
// survive past the call that created them.
package scratchpad

const (
	// TileM, TileN, TileK are the systolic array's fixed tile
	// dimensions. The orchestrator may not choose smaller ones.
	TileM = 32
	TileN = 32
	TileK = 32

	// SpatialH, SpatialW are the fixed raw spatial tile dimensions the
	// orchestrator loads per output block. Of the two variants seen in
	// the source (a fixed 32x32 tile, and a dynamically sized tile
	// capped at MaxSpatialTileDim) this design adopts the former: any
	// configuration whose effective kernel footprint exceeds SpatialH
	// is rejected rather than growing the tile.
	SpatialH = 32
	SpatialW = 32

	// MaxSpatialTileDim is the historical upper bound on T_h/T_w. It is
	// strictly looser than SpatialH/SpatialW and no code path checks
	// against it; it is kept as documentation only.
	MaxSpatialTileDim = 64
)

// Pad holds the fixed-size GEMM tiles. sc_A, sc_B and sc_C are inline
// arrays sized at compile time; sc_RAW is a single heap allocation sized
// by the caller to C_in*T_h*T_w once per conv2d invocation.
type Pad struct {
	A [TileM * TileK]float32
	B [TileK * TileN]float32
	C [TileM * TileN]float32

	Raw []float32
}

// NewPad allocates sc_RAW for the given spatial tile and returns a fresh
// Pad. The GEMM tiles start zeroed as Go zero-values.
func NewPad(cIn, tH, tW int) *Pad {
	return &Pad{Raw: make([]float32, cIn*tH*tW)}
}

// ZeroC clears the accumulator tile. Called at the start of every batch
// of up to TileM patches within each (output-block, output-channel-tile)
// pair.
func (p *Pad) ZeroC() {
	clear(p.C[:])
}

// ZeroRaw clears the raw spatial tile before a fresh DMA load.
func (p *Pad) ZeroRaw() {
	clear(p.Raw)
}

// ARow returns the TileK-wide slice of sc_A backing row m.
func (p *Pad) ARow(m int) []float32 {
	return p.A[m*TileK : (m+1)*TileK]
}
