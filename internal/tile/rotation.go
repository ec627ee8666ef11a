package tile

import "fmt"

// Rotation поворот тайла вокруг вертикальной оси с шагом 90°
type Rotation uint8

const (
	Rot0 Rotation = iota
	Rot90
	Rot180
	Rot270

	RotationCount = 4
)

// AllRotations возвращает все повороты по возрастанию угла
func AllRotations() [RotationCount]Rotation {
	return [RotationCount]Rotation{Rot0, Rot90, Rot180, Rot270}
}

// Degrees возвращает угол поворота (yaw) в градусах
func (r Rotation) Degrees() float64 {
	return float64(r) * 90.0
}

func (r Rotation) String() string {
	if r < RotationCount {
		return fmt.Sprintf("%d", int(r)*90)
	}
	return fmt.Sprintf("rotation(%d)", uint8(r))
}

// ReverseRotation меняет направление поворота (по часовой <-> против часовой)
func ReverseRotation(r Rotation) Rotation {
	switch r {
	case Rot90:
		return Rot270
	case Rot270:
		return Rot90
	default:
		return r
	}
}

// RotateDirection поворачивает горизонтальное направление.
// Шаг 90° переводит Left -> Back -> Right -> Front -> Left.
func RotateDirection(d Direction, r Rotation) Direction {
	if d.IsVertical() || r == Rot0 {
		return d
	}

	switch r {
	case Rot180:
		return ReverseDirection(d)
	case Rot90:
		switch d {
		case Left:
			return Back
		case Back:
			return Right
		case Right:
			return Front
		case Front:
			return Left
		}
	case Rot270:
		switch d {
		case Left:
			return Front
		case Front:
			return Right
		case Right:
			return Back
		case Back:
			return Left
		}
	}

	return d
}
