package common

import "github.com/go-gl/mathgl/mgl64"

type Vec2 = mgl64.Vec2

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

func DoWhile(do func() (stop bool), while func() bool) {
	if do() {
		return
	}
	for while() {
		if do() {
			return
		}
	}
}

// Prev returns the previous index of a closed ring of n elements.
func Prev[T IIndex](i, n T) T {
	if i > 0 {
		return i - 1
	}
	return n - 1
}

// Next returns the next index of a closed ring of n elements.
func Next[T IIndex](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// GridIndex maps (x, y) to a row-major index.
func GridIndex(x, y, width int) int {
	return y*width + x
}

// InGrid reports whether (x, y) is inside a width x height grid.
func InGrid(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}
