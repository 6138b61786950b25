package atallax

import "errors"

// Sentinel errors Conv2D can wrap. A production caller matches on these
// with errors.Is; the design itself only requires that unsupported
// shapes and allocation failures be observable, not a specific
// mechanism.
var (
	ErrUnsupportedBatch = errors.New("atallax: only batch size n=1 is supported")
	ErrTileOverflow     = errors.New("atallax: effective kernel footprint exceeds the fixed spatial tile")
)
