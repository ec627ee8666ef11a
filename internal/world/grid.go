package world

import (
	"fmt"

	"github.com/annel0/tome/internal/vec"
)

// Grid отображение между мировым пространством и целочисленной сеткой
type Grid struct {
	CellSize vec.Vec3Float
}

// NewGrid создаёт сетку с размером ячейки по каждой оси
func NewGrid(cellSize vec.Vec3Float) (Grid, error) {
	if cellSize.X <= 0 || cellSize.Y <= 0 || cellSize.Z <= 0 {
		return Grid{}, fmt.Errorf("размер ячейки должен быть положительным: %+v", cellSize)
	}
	return Grid{CellSize: cellSize}, nil
}

// WorldToGrid делит позицию на размер ячейки и округляет до ближайшего целого
func (g Grid) WorldToGrid(position vec.Vec3Float) vec.Vec3 {
	return position.Div(g.CellSize).Round()
}

// GridToWorld возвращает мировую позицию центра ячейки
func (g Grid) GridToWorld(coord vec.Vec3) vec.Vec3Float {
	return coord.ToFloat().Mul(g.CellSize)
}

// Extent возвращает полуразмер куба сканирования в ячейках для радиуса
func (g Grid) Extent(radius float64) vec.Vec3 {
	return vec.Vec3Float{X: radius, Y: radius, Z: radius}.Div(g.CellSize).Ceil()
}
