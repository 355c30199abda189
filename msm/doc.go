// Package msm implements multi-scalar multiplication over BLS12-381 G1
// using a BGMW windowed precomputation table evaluated with a
// signed-digit (Booth) bucket method.
//
// A [Table] is built once from a fixed set of base points and stores,
// for each point P and each window level j, the multiple P * 2^(width*j)
// in affine form. Evaluating sum(scalar_i * P_i) then only requires
// splitting each scalar into width-bit windows, routing the matching
// precomputed point into one of 2^(width-1) buckets (Booth encoding
// halves the bucket count by allowing subtraction), and collapsing the
// buckets with a running triangular sum. No doubling chain between
// window levels is needed because the table rows are pre-multiplied.
//
// Tables built with a tiled window evaluate in parallel: the point range
// and the scalar bit range are cut into an NX by NY grid of tiles, and a
// fixed pool of workers claims tiles through a single atomic counter.
// Each worker keeps a private bucket array, so the only shared mutable
// state on the hot path is that counter. The parallel result is
// identical to the sequential one for the same inputs.
//
// Tables serialize to a little-endian binary format (see [Table.Write])
// so the precomputation cost can be paid once and reloaded from disk.
package msm
