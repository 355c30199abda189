package msm

import (
	"sync/atomic"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/xerrors"
)

// maxTableEntries caps the precomputation matrix so hostile or mistaken
// inputs fail with an error before an allocation that cannot succeed.
const maxTableEntries = 1 << 30

var (
	// ErrTableTooLarge is returned when the requested precomputation
	// matrix exceeds maxTableEntries.
	ErrTableTooLarge = xerrors.New("msm: precomputation table too large")

	// ErrTiledTable is returned when the sequential evaluator is invoked
	// on a table built with a tiled window.
	ErrTiledTable = xerrors.New("msm: sequential evaluation requires a sync window")

	// ErrScalarCount is returned when the scalar slice length does not
	// match the table's point count.
	ErrScalarCount = xerrors.New("msm: scalar count does not match table")
)

// Table is a BGMW precomputation table for a fixed set of G1 base
// points. Row j of the matrix holds every base point multiplied by
// 2^(width*j), so all window levels of an evaluation share one bucket
// array and a single integration.
//
// A Table is read-only after construction and safe for concurrent use.
type Table struct {
	window    Window
	points    []bls12381.G1Affine // row-major, h rows of numPoints
	numPoints int
	h         int
}

// NewTable builds a table for points with a window chosen by
// [SelectWindow] for the current worker pool.
func NewTable(points []bls12381.G1Affine) (*Table, error) {
	return NewTableWithWindow(points, SelectWindow(len(points), Workers()))
}

// NewTableWithWindow builds a table for points with an explicit window
// parameter. The window is validated; no partial table is returned on
// failure.
func NewTableWithWindow(points []bls12381.G1Affine, window Window) (*Table, error) {
	if err := window.validate(); err != nil {
		return nil, err
	}
	width, h := window.dimensions()
	n := len(points)
	if n > 0 && n > maxTableEntries/h {
		return nil, xerrors.Errorf("%w: %d points x %d rows", ErrTableTooLarge, n, h)
	}

	table := make([]bls12381.G1Affine, n*h)
	cur := make([]bls12381.G1Jac, n)
	for i := range points {
		cur[i].FromAffine(&points[i])
	}
	for j := 0; j < h; j++ {
		copy(table[j*n:(j+1)*n], bls12381.BatchJacobianToAffineG1(cur))
		if j+1 == h {
			break
		}
		// Advance every column by q = 2^width via repeated doubling.
		for i := range cur {
			for k := 0; k < width; k++ {
				cur[i].DoubleAssign()
			}
		}
	}

	return &Table{
		window:    window,
		points:    table,
		numPoints: n,
		h:         h,
	}, nil
}

// Window returns the window parameter the table was built with.
func (t *Table) Window() Window { return t.window }

// NumPoints returns the size of the base point set.
func (t *Table) NumPoints() int { return t.numPoints }

// Rows returns the number of precomputed window levels.
func (t *Table) Rows() int { return t.h }

// Multiply computes sum(scalars[i] * P_i) over the table's base points,
// dispatching to the parallel evaluator for tiled windows and the
// sequential one otherwise.
func (t *Table) Multiply(scalars []fr.Element) (bls12381.G1Jac, error) {
	if t.window.Tiled() {
		return t.MultiplyParallel(scalars)
	}
	return t.MultiplySequential(scalars)
}

// MultiplySequential evaluates the multi-scalar multiplication on the
// calling goroutine. The table must have a sync window; len(scalars)
// must equal the table's point count.
func (t *Table) MultiplySequential(scalars []fr.Element) (bls12381.G1Jac, error) {
	var ret bls12381.G1Jac
	if t.window.Tiled() {
		return ret, ErrTiledTable
	}
	if len(scalars) != t.numPoints {
		return ret, xerrors.Errorf("%w: %d scalars for %d points", ErrScalarCount, len(scalars), t.numPoints)
	}
	if t.numPoints == 0 {
		return ret, nil
	}

	window := t.window.Width
	limbs := toLimbs(scalars)
	buckets := make([]bls12381.G1Jac, 1<<uint(window-1))

	// The top level is the nbits%window remainder window (bit count
	// zero when the width divides evenly, consuming only the Booth
	// carry); every level below is a full window.
	wbits := nbits % window
	cbits := wbits + 1
	bit0 := nbits
	row := t.h
	for {
		bit0 -= wbits
		row--
		if bit0 == 0 {
			break
		}
		bucketTile(t.points[row*t.numPoints:(row+1)*t.numPoints], limbs, buckets, bit0, wbits, cbits)
		wbits, cbits = window, window
	}
	bucketTile(t.points[:t.numPoints], limbs, buckets, 0, wbits, cbits)

	return integrateBuckets(buckets), nil
}

// tileDesc identifies a rectangular unit of parallel work: dx points
// starting at index x, dy scalar bits starting at bit y.
type tileDesc struct {
	x, dx int
	y, dy int
}

// MultiplyParallel evaluates the multi-scalar multiplication across the
// worker pool. Tables with a sync window fall back to the sequential
// path.
func (t *Table) MultiplyParallel(scalars []fr.Element) (bls12381.G1Jac, error) {
	var ret bls12381.G1Jac
	if !t.window.Tiled() {
		return t.MultiplySequential(scalars)
	}
	if len(scalars) != t.numPoints {
		return ret, xerrors.Errorf("%w: %d scalars for %d points", ErrScalarCount, len(scalars), t.numPoints)
	}
	if t.numPoints == 0 {
		return ret, nil
	}

	nx, ny, window := t.window.NX, t.window.NY, t.window.Width
	limbs := toLimbs(scalars)

	// Materialize the tile grid up front; the top row covers whatever
	// the full rows below it leave of the bit range (possibly zero bits,
	// carry only), and the last column absorbs the point remainder.
	grid := make([]tileDesc, 0, nx*ny)
	dx := t.numPoints / nx
	y := window * (ny - 1)
	for i := 0; i < nx; i++ {
		w := dx
		if i == nx-1 {
			w = t.numPoints - i*dx
		}
		grid = append(grid, tileDesc{x: i * dx, dx: w, y: y, dy: nbits - y})
	}
	for y > 0 {
		y -= window
		for i := 0; i < nx; i++ {
			grid = append(grid, tileDesc{x: grid[i].x, dx: grid[i].dx, y: y, dy: window})
		}
	}
	total := len(grid)

	pool := workerPool()
	workers := pool.Cap()
	if workers > total {
		workers = total
	}

	var counter atomic.Uint64
	results := make(chan bls12381.G1Jac, workers)
	task := func() {
		buckets := make([]bls12381.G1Jac, 1<<uint(window-1))
		for {
			work := int(counter.Add(1)) - 1
			if work >= total {
				results <- integrateBuckets(buckets)
				return
			}
			tl := grid[work]
			row := tl.y / window
			points := t.points[row*t.numPoints+tl.x : row*t.numPoints+tl.x+tl.dx]
			wbits, cbits := window, window
			if tl.y+window > nbits {
				wbits = nbits - tl.y
				cbits = wbits + 1
			}
			bucketTile(points, limbs[tl.x:tl.x+tl.dx], buckets, tl.y, wbits, cbits)
		}
	}
	for w := 0; w < workers; w++ {
		if err := pool.Submit(task); err != nil {
			// The pool only rejects work when released; run on the
			// caller so every worker still delivers one result.
			task()
		}
	}
	for w := 0; w < workers; w++ {
		part := <-results
		ret.AddAssign(&part)
	}
	return ret, nil
}
