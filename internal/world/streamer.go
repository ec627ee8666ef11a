package world

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/vec"
)

// TickReport итог одного тика стримера
type TickReport struct {
	Center   vec.Vec3      `json:"center"`
	Observer vec.Vec3Float `json:"observer"`
	Scanned  int           `json:"scanned"`
	Queued   int           `json:"queued"`
	Placed   int           `json:"placed"`
	Empty    int           `json:"empty"`
	Unloaded int           `json:"unloaded"`
	Duration time.Duration `json:"duration"`
}

// Streamer раз за тик загружает ячейки в радиусе наблюдателя и выгружает дальние
type Streamer struct {
	gen            *Generator
	observer       ObserverSource
	renderDistance float64
	drawer         DebugDrawer
	tracer         trace.Tracer
	logger         *logging.Logger
}

// NewStreamer создаёт стример
func NewStreamer(gen *Generator, observer ObserverSource, renderDistance float64) (*Streamer, error) {
	if gen == nil || observer == nil {
		return nil, fmt.Errorf("генератор и источник позиции обязательны")
	}
	if renderDistance <= 0 {
		return nil, fmt.Errorf("дистанция прорисовки должна быть положительной: %v", renderDistance)
	}
	return &Streamer{
		gen:            gen,
		observer:       observer,
		renderDistance: renderDistance,
		tracer:         otel.Tracer("tome/world"),
		logger:         gen.logger,
	}, nil
}

// SetDebugDrawer включает отладочную отрисовку куба сканирования. nil выключает.
func (s *Streamer) SetDebugDrawer(d DebugDrawer) {
	s.drawer = d
}

// RenderDistance дистанция прорисовки в мировых единицах
func (s *Streamer) RenderDistance() float64 {
	return s.renderDistance
}

// Generator возвращает генератор стримера
func (s *Streamer) Generator() *Generator {
	return s.gen
}

type pendingCell struct {
	coord    vec.Vec3
	distance float64
}

// Tick выполняет один шаг: выгрузка вне радиуса, затем генерация нерешённых
// ячеек в радиусе от ближних к дальним. Ошибка спавнера прерывает тик.
func (s *Streamer) Tick(ctx context.Context) (TickReport, error) {
	started := s.gen.now()
	ctx, span := s.tracer.Start(ctx, "Streamer.Tick")
	defer span.End()

	report, err := s.tick(ctx)
	report.Duration = s.gen.now().Sub(started)

	span.SetAttributes(
		attribute.Int("tome.scanned", report.Scanned),
		attribute.Int("tome.placed", report.Placed),
		attribute.Int("tome.empty", report.Empty),
		attribute.Int("tome.unloaded", report.Unloaded),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.gen.metrics.ObserveTick(report)
	logging.LogTickSummary(s.logger, report.Center, report.Placed, report.Empty, report.Unloaded, report.Duration)
	return report, err
}

func (s *Streamer) tick(ctx context.Context) (TickReport, error) {
	var report TickReport

	pos, err := s.observer.Position(ctx)
	if err != nil {
		return report, fmt.Errorf("позиция наблюдателя: %w", err)
	}

	grid := s.gen.cfg.Grid
	center := grid.WorldToGrid(pos)
	extent := grid.Extent(s.renderDistance)
	report.Center = center
	report.Observer = pos

	if s.drawer != nil {
		s.drawer.BeginScan(center, pos)
	}
	halfSize := grid.CellSize.Scale(0.5)

	var load []pendingCell
	keptInCube := 0
	for z := center.Z - extent.Z; z <= center.Z+extent.Z; z++ {
		for y := center.Y - extent.Y; y <= center.Y+extent.Y; y++ {
			for x := center.X - extent.X; x <= center.X+extent.X; x++ {
				coord := vec.Vec3{X: x, Y: y, Z: z}
				cellPos := grid.GridToWorld(coord)
				distance := cellPos.DistanceTo(pos)
				inRange := distance <= s.renderDistance
				report.Scanned++

				if s.drawer != nil {
					s.drawer.DrawCell(coord, cellPos, halfSize, inRange)
				}

				_, decided, err := s.gen.store.Get(coord)
				if err != nil {
					return report, fmt.Errorf("чтение ячейки %v: %w", coord, err)
				}

				if inRange {
					if decided {
						keptInCube++
					} else {
						load = append(load, pendingCell{coord: coord, distance: distance})
					}
					continue
				}
				if decided {
					if err := s.gen.UnloadTile(ctx, coord); err != nil {
						return report, err
					}
					report.Unloaded++
				}
			}
		}
	}

	// Записи вне куба остаются после резкого перемещения наблюдателя
	if s.gen.store.Len() > keptInCube {
		n, err := s.sweepOutside(ctx, center, extent)
		report.Unloaded += n
		if err != nil {
			return report, err
		}
	}

	sort.SliceStable(load, func(i, j int) bool {
		return load[i].distance < load[j].distance
	})
	report.Queued = len(load)

	for _, cell := range load {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inst, err := s.gen.GenerateTile(ctx, cell.coord)
		if err != nil {
			return report, err
		}
		if inst.Occupied() {
			report.Placed++
		} else {
			report.Empty++
		}
	}

	return report, nil
}

func (s *Streamer) sweepOutside(ctx context.Context, center, extent vec.Vec3) (int, error) {
	var stale []vec.Vec3
	err := s.gen.store.Range(func(coord vec.Vec3, _ TileInstance) bool {
		d := coord.Sub(center)
		if abs(d.X) > extent.X || abs(d.Y) > extent.Y || abs(d.Z) > extent.Z {
			stale = append(stale, coord)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("обход карты тайлов: %w", err)
	}

	for i, coord := range stale {
		if err := s.gen.UnloadTile(ctx, coord); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}
