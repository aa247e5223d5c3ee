// Package numeric holds small overflow-aware integer helpers shared by
// the HLL metrics counters and the cluster slot rebalancer.
package numeric

import "math/bits"

// SafeAdd returns x+y and reports whether the addition overflowed.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry != 0
}

// SafeMul returns x*y and reports whether the multiplication overflowed.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// AbsoluteDifference returns |x-y| without relying on signed subtraction.
func AbsoluteDifference(x, y uint64) uint64 {
	if x > y {
		return x - y
	}
	return y - x
}

// CeilDiv returns the ceiling of x/y, or 0 if y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}
