package tile

import (
	"github.com/annel0/tome/internal/util"
	"github.com/annel0/tome/internal/vec"
)

// GetConnection возвращает соединение, которое повёрнутый и отражённый экземпляр
// определения показывает в мировом направлении d. Направление сначала
// поворачивается обратно, затем отражается в собственную систему определения.
func GetConnection(def *Definition, d Direction, r Rotation, scale vec.Vec3Float) Connection {
	local := ScaleDirection(RotateDirection(d, ReverseRotation(r)), scale)
	return def.Connections[local]
}

// ActorTileRotation сворачивает произвольный yaw объекта в градусах в Rotation
func ActorTileRotation(yaw float64) Rotation {
	steps := util.RoundToInt(yaw / 90.0)
	return Rotation(util.PositiveMod(steps, RotationCount))
}

// WorldConnections возвращает все шесть соединений в мировых направлениях
func WorldConnections(def *Definition, r Rotation, scale vec.Vec3Float) [DirectionCount]Connection {
	var out [DirectionCount]Connection
	for _, d := range AllDirections() {
		out[d] = GetConnection(def, d, r, scale)
	}
	return out
}
