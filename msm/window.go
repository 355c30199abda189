package msm

import (
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/xerrors"
)

// nbits is the scalar bit length processed by the bucket method.
const nbits = fr.Bits

// maxWindowWidth bounds the bucket array at 2^31 entries. Wider windows
// would require more memory than any realistic host can reserve, so they
// are rejected up front rather than attempted.
const maxWindowWidth = 32

// ErrInvalidWindow is returned for window parameters that violate the
// width or tiling invariants.
var ErrInvalidWindow = xerrors.New("msm: invalid window parameter")

// Window selects how scalar bits are split during evaluation.
//
// A sync window (NX == NY == 0) processes Width bits per level on a
// single goroutine. A tiled window additionally partitions the point
// range into NX columns and the bit range into NY rows of Width bits,
// evaluated by the worker pool. The zero Window is invalid.
type Window struct {
	Width int
	NX    int
	NY    int
}

// Tiled reports whether the window carries a parallel tiling shape.
func (w Window) Tiled() bool {
	return w.NX != 0 || w.NY != 0
}

func (w Window) validate() error {
	if w.Width < 1 || w.Width > maxWindowWidth {
		return xerrors.Errorf("%w: width %d out of range [1,%d]", ErrInvalidWindow, w.Width, maxWindowWidth)
	}
	if !w.Tiled() {
		return nil
	}
	if w.NX < 1 || w.NY < 1 {
		return xerrors.Errorf("%w: tiling %dx%d", ErrInvalidWindow, w.NX, w.NY)
	}
	// The row grid must cover all scalar bits and leave a truncated or
	// carry-only top row, otherwise the Booth carry out of the highest
	// full window is lost.
	if w.Width*(w.NY-1) > nbits || w.Width*w.NY <= nbits {
		return xerrors.Errorf("%w: %d rows of %d bits do not cover %d scalar bits", ErrInvalidWindow, w.NY, w.Width, nbits)
	}
	return nil
}

// dimensions returns the window width and the number of table rows it
// requires. Sync windows need ceil(nbits/width) rows, plus one extra
// carry row when the width divides the bit length exactly.
func (w Window) dimensions() (width, h int) {
	if w.Tiled() {
		return w.Width, w.NY
	}
	h = (nbits + w.Width - 1) / w.Width
	if nbits%w.Width == 0 {
		h++
	}
	return w.Width, h
}

// SelectWindow picks a window for a base of npoints points evaluated by
// at most workers goroutines. It is a pure function of its arguments:
// small bases or low worker counts get a sync window sized by the
// Pippenger cost heuristic, larger ones get a tiling that spreads the
// same bit budget across the pool.
func SelectWindow(npoints, workers int) Window {
	width := pippengerWindowSize(npoints)
	if npoints > 32 && workers > 2 {
		nx, ny, wnd := breakdown(width, workers)
		return Window{Width: wnd, NX: nx, NY: ny}
	}
	// Hand-tuned override for 4096-point bases, measured faster than the
	// generic heuristic on the CHES MSM benchmarks.
	if npoints > 0 && bits.TrailingZeros(uint(npoints)) == 12 {
		width = 13
	}
	return Window{Width: width}
}

// pippengerWindowSize balances table-build cost against bucket-method
// cost for the given base size.
func pippengerWindowSize(npoints int) int {
	wbits := bits.Len(uint(npoints)) - 1
	switch {
	case wbits > 12:
		return wbits - 4
	case wbits > 4:
		return wbits - 3
	case wbits > 0:
		return 2
	default:
		return 1
	}
}

// breakdown turns a sync window width and a worker count into a tile
// grid. The final two assignments renormalize the width so that the grid
// always covers the full bit range with a partial (or carry-only) top
// row.
func breakdown(window, ncpus int) (nx, ny, wnd int) {
	if nbits > window*ncpus {
		nx = 1
		wnd = bits.Len(uint(ncpus / 4))
		if window+wnd > 18 {
			wnd = window - wnd
		} else {
			wnd = (nbits/window + ncpus - 1) / ncpus
			if (nbits/(window+1)+ncpus-1)/ncpus < wnd {
				wnd = window + 1
			} else {
				wnd = window
			}
		}
	} else {
		nx = 2
		wnd = max(window-2, 1)
		for (nbits/wnd+1)*nx < ncpus {
			nx += 2
			wnd = max(window-bits.Len(uint(3*nx/2)), 1)
		}
	}
	ny = nbits/wnd + 1
	wnd = nbits/ny + 1
	return nx, ny, wnd
}
