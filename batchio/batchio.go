// Package batchio decodes sequences of fixed-width binary records.
//
// It generalizes the pattern shared by the trusted-setup and
// precomputation-table file formats: a known number of fixed-size
// records, each decoded independently. Decoding can run sequentially or
// fan out across a worker pool; in both cases the output order matches
// the record order in the stream, and the first failure aborts the whole
// read.
package batchio

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/xerrors"
)

// parallelThreshold is the record count below which the pool overhead
// outweighs parallel decoding.
const parallelThreshold = 128

var (
	poolOnce sync.Once
	pool     *ants.Pool
)

// decodePool leaves headroom for the reading and coordinating
// goroutines.
func decodePool() *ants.Pool {
	poolOnce.Do(func() {
		size := runtime.NumCPU() - 2
		if size < 1 {
			size = 1
		}
		p, err := ants.NewPool(size)
		if err != nil {
			panic(err)
		}
		pool = p
	})
	return pool
}

// Read decodes n records of size bytes each from r on the calling
// goroutine.
func Read[T any](r io.Reader, size, n int, decode func([]byte) (T, error)) ([]T, error) {
	out := make([]T, n)
	buf := make([]byte, size)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, xerrors.Errorf("batchio: read record %d: %w", i, err)
		}
		v, err := decode(buf)
		if err != nil {
			return nil, xerrors.Errorf("batchio: decode record %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type decodeFailure struct {
	index int
	err   error
}

// ReadParallel reads records from r sequentially and fans decoding out
// across the shared pool. Results are stored by original index, so the
// returned slice is ordered exactly as [Read] would order it. Small
// batches decode inline.
func ReadParallel[T any](r io.Reader, size, n int, decode func([]byte) (T, error)) ([]T, error) {
	if n < parallelThreshold {
		return Read(r, size, n, decode)
	}

	out := make([]T, n)
	var (
		wg      sync.WaitGroup
		failure atomic.Pointer[decodeFailure]
	)
	for i := 0; i < n; i++ {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			wg.Wait()
			return nil, xerrors.Errorf("batchio: read record %d: %w", i, err)
		}
		if failure.Load() != nil {
			break
		}
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			v, err := decode(buf)
			if err != nil {
				failure.CompareAndSwap(nil, &decodeFailure{index: i, err: err})
				return
			}
			out[i] = v
		}
		if err := decodePool().Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	if f := failure.Load(); f != nil {
		return nil, xerrors.Errorf("batchio: decode record %d: %w", f.index, f.err)
	}
	return out, nil
}
