package world

import (
	"context"
	"fmt"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// PlaceTile создаёт объект определения в ячейке и записывает занятую ячейку.
// При ошибке спавнера ячейка остаётся нерешённой.
func (g *Generator) PlaceTile(ctx context.Context, coord vec.Vec3, rotation tile.Rotation, scale vec.Vec3Float, def *tile.Definition) (TileInstance, error) {
	req := SpawnRequest{
		Type:     def.Type,
		Position: g.cfg.Grid.GridToWorld(coord),
		Yaw:      rotation.Degrees(),
		Scale:    scale,
		Parent:   g.anchor,
	}

	h, err := g.spawner.Spawn(ctx, req)
	if err == nil && h == 0 {
		err = fmt.Errorf("спавнер вернул пустой дескриптор")
	}
	if err != nil {
		g.metrics.SpawnFailed()
		g.logger.Error("Ошибка создания %s в %v: %v", def.Key, coord, err)
		return TileInstance{}, fmt.Errorf("%w: %s в %v: %w", ErrSpawnFailed, def.Key, coord, err)
	}

	if g.cfg.RefreshMirroredVisibility && tile.IsMirrored(scale) {
		g.refreshVisibility(h)
	}

	inst := TileInstance{Handle: h, Def: def}
	if err := g.store.Put(coord, inst); err != nil {
		// Объект без записи в карте потеряется, удаляем его
		if derr := g.spawner.Destroy(ctx, h); derr != nil {
			g.logger.Error("Не удалось удалить объект %d после ошибки записи: %v", h, derr)
		}
		return TileInstance{}, fmt.Errorf("запись ячейки %v: %w", coord, err)
	}

	logging.LogTileDecision(g.logger, coord, def.Key, rotation.Degrees(), tile.IsMirrored(scale))
	g.publish(ctx, TileEvent{
		EventType: EventTypeTilePlaced,
		Coord:     coord,
		Key:       def.Key,
		Type:      def.Type,
		Rotation:  rotation,
		Mirrored:  tile.IsMirrored(scale),
		Handle:    h,
	})
	return inst, nil
}

func (g *Generator) refreshVisibility(h Handle) {
	for i := 0; i < 2; i++ {
		if err := g.spawner.ToggleVisibility(h); err != nil {
			g.logger.Warn("Переключение видимости объекта %d: %v", h, err)
			return
		}
	}
}

// UnloadTile удаляет запись ячейки и объект, если он есть. Без записи - ничего не делает.
// При ошибке удаления объекта запись сохраняется.
func (g *Generator) UnloadTile(ctx context.Context, coord vec.Vec3) error {
	inst, ok, err := g.store.Get(coord)
	if err != nil {
		return fmt.Errorf("чтение ячейки %v: %w", coord, err)
	}
	if !ok {
		return nil
	}

	if inst.Occupied() {
		if err := g.spawner.Destroy(ctx, inst.Handle); err != nil {
			g.metrics.DestroyFailed()
			g.logger.Error("Ошибка удаления объекта %d в %v: %v", inst.Handle, coord, err)
			return fmt.Errorf("%w: %v: %w", ErrDestroyFailed, coord, err)
		}
	}

	if err := g.store.Delete(coord); err != nil {
		return fmt.Errorf("удаление ячейки %v: %w", coord, err)
	}

	ev := TileEvent{EventType: EventTypeTileUnloaded, Coord: coord, Handle: inst.Handle}
	if inst.Def != nil {
		ev.Key = inst.Def.Key
		ev.Type = inst.Def.Type
	}
	g.publish(ctx, ev)
	return nil
}
