package msm

import (
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

var (
	poolOnce sync.Once
	pool     *ants.Pool
)

// workerPool returns the shared compute pool, sized to leave one CPU for
// the coordinating goroutine.
func workerPool() *ants.Pool {
	poolOnce.Do(func() {
		size := runtime.NumCPU() - 1
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

// Workers reports how many goroutines the parallel evaluator can use.
func Workers() int {
	return workerPool().Cap()
}
