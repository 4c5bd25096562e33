package qsim

import (
	"unsafe"

	"github.com/ajroetker/go-highway/hwy/contrib/vec"
)

// norm2 returns |a|^2.
func norm2[T Amplitude](a T) float64 {
	c := complex128(a)
	return real(c)*real(c) + imag(c)*imag(c)
}

/*
sumSquares returns the summed squared magnitude of a. Complex slices are
viewed as interleaved float slices so the sum is a single vectorized dot
product of the view with itself.
*/
func sumSquares[T Amplitude](a []T) float64 {
	if len(a) == 0 {
		return 0
	}

	switch v := any(a).(type) {
	case []complex128:
		f := unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(v))), 2*len(v))
		return vec.Dot(f, f)
	case []complex64:
		f := unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(v))), 2*len(v))
		return float64(vec.Dot(f, f))
	}

	var sum float64
	for _, x := range a {
		sum += norm2(x)
	}
	return sum
}
