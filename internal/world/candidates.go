package world

import (
	"fmt"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// Candidate комбинация определения, поворота и отражения для ячейки
type Candidate struct {
	Def      *tile.Definition
	Rotation tile.Rotation
	Scale    vec.Vec3Float
}

type neighborState uint8

const (
	neighborUndecided neighborState = iota
	neighborEmpty
	neighborOccupied
)

// neighbor решённое состояние соседней ячейки с ориентацией её объекта
type neighbor struct {
	state    neighborState
	def      *tile.Definition
	rotation tile.Rotation
	scale    vec.Vec3Float
}

// presents возвращает соединение соседа в сторону d (мировое направление от соседа)
func (n neighbor) presents(d tile.Direction) tile.Connection {
	if n.state != neighborOccupied {
		return tile.Empty
	}
	return tile.GetConnection(n.def, d, n.rotation, n.scale)
}

// Candidates перечисляет все допустимые кандидаты для ячейки в порядке
// каталог -> поворот -> отражение. Нерешённые соседи ограничений не дают.
func (g *Generator) Candidates(coord vec.Vec3) ([]Candidate, error) {
	neighbors, err := g.neighbors(coord)
	if err != nil {
		return nil, err
	}

	isOrigin := coord == g.cfg.Origin
	var out []Candidate

	for _, def := range g.catalog.Definitions() {
		if isOrigin && !def.CanSpawnHere {
			continue
		}
		if g.blacklisted(def, &neighbors) {
			continue
		}

		for _, rotation := range tile.AllRotations() {
			for _, scale := range tile.MirrorVariants(def.MirrorAllowed) {
				if fits(def, rotation, scale, &neighbors) {
					out = append(out, Candidate{Def: def, Rotation: rotation, Scale: scale})
				}
			}
		}
	}

	return out, nil
}

func (g *Generator) neighbors(coord vec.Vec3) ([tile.DirectionCount]neighbor, error) {
	var out [tile.DirectionCount]neighbor

	for _, d := range tile.AllDirections() {
		at := coord.Add(d.Offset())
		inst, ok, err := g.store.Get(at)
		if err != nil {
			return out, fmt.Errorf("чтение соседа %v: %w", at, err)
		}
		switch {
		case !ok:
			out[d] = neighbor{state: neighborUndecided}
		case !inst.Occupied():
			out[d] = neighbor{state: neighborEmpty}
		default:
			tr, found := g.spawner.Transform(inst.Handle)
			if !found {
				return out, fmt.Errorf("нет преобразования объекта %d в %v", inst.Handle, at)
			}
			out[d] = neighbor{
				state:    neighborOccupied,
				def:      inst.Def,
				rotation: tile.ActorTileRotation(tr.Yaw),
				scale:    tr.Scale,
			}
		}
	}

	return out, nil
}

func (g *Generator) blacklisted(def *tile.Definition, neighbors *[tile.DirectionCount]neighbor) bool {
	for _, n := range neighbors {
		if n.state != neighborOccupied {
			continue
		}
		if def.Forbids(n.def.Type) {
			return true
		}
		if g.cfg.SymmetricBlacklist && n.def.Forbids(def.Type) {
			return true
		}
	}
	return false
}

func fits(def *tile.Definition, rotation tile.Rotation, scale vec.Vec3Float, neighbors *[tile.DirectionCount]neighbor) bool {
	for _, d := range tile.AllDirections() {
		n := neighbors[d]
		if n.state == neighborUndecided {
			continue
		}

		conn := tile.GetConnection(def, d, rotation, scale)
		if conn != n.presents(tile.ReverseDirection(d)) {
			return false
		}

		// Вертикальные непустые соединения требуют одинаковой ориентации стопки
		if d.IsVertical() && conn != tile.Empty && n.state == neighborOccupied {
			if n.rotation != rotation || n.scale != scale {
				return false
			}
		}
	}
	return true
}
