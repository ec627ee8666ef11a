package tile

import (
	"fmt"

	"github.com/annel0/tome/internal/vec"
)

// Direction направление грани тайла
type Direction uint8

// Порядок важен: пары противоположных направлений идут подряд (чётное/нечётное)
const (
	Left Direction = iota
	Right
	Back
	Front
	Below
	Above

	DirectionCount = 6
)

var directionOffsets = [DirectionCount]vec.Vec3{
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
}

var directionNames = [DirectionCount]string{"left", "right", "back", "front", "below", "above"}

// AllDirections возвращает все шесть направлений в каноническом порядке
func AllDirections() [DirectionCount]Direction {
	return [DirectionCount]Direction{Left, Right, Back, Front, Below, Above}
}

// Offset возвращает единичное смещение ячейки в этом направлении
func (d Direction) Offset() vec.Vec3 {
	return directionOffsets[d]
}

// IsVertical true для Above/Below
func (d Direction) IsVertical() bool {
	return d == Above || d == Below
}

func (d Direction) String() string {
	if d < DirectionCount {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection разбирает имя направления
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("неизвестное направление %q", name)
}

// ReverseDirection возвращает противоположное направление
func ReverseDirection(d Direction) Direction {
	if d%2 == 1 {
		return d - 1
	}
	return d + 1
}
