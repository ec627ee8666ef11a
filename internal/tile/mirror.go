package tile

import "github.com/annel0/tome/internal/vec"

var (
	// Identity масштаб без отражения
	Identity = vec.Vec3Float{X: 1, Y: 1, Z: 1}
	// MirrorX отражение по оси X
	MirrorX = vec.Vec3Float{X: -1, Y: 1, Z: 1}
)

// MirrorVariants возвращает допустимые варианты масштаба для определения
func MirrorVariants(mirrorAllowed bool) []vec.Vec3Float {
	if mirrorAllowed {
		return []vec.Vec3Float{Identity, MirrorX}
	}
	return []vec.Vec3Float{Identity}
}

// IsMirrored true, если хотя бы одна ось отражена
func IsMirrored(scale vec.Vec3Float) bool {
	return scale.X < 0 || scale.Y < 0 || scale.Z < 0
}

// ScaleDirection отражает направление по осям с отрицательным масштабом.
// Учитывается только знак, каждая ось независимо.
func ScaleDirection(d Direction, scale vec.Vec3Float) Direction {
	switch {
	case scale.X < 0 && (d == Left || d == Right):
		return ReverseDirection(d)
	case scale.Y < 0 && (d == Back || d == Front):
		return ReverseDirection(d)
	case scale.Z < 0 && (d == Below || d == Above):
		return ReverseDirection(d)
	}
	return d
}
