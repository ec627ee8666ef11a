package world

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// fakeSpawner простая сцена для тестов
type fakeSpawner struct {
	next       Handle
	objects    map[Handle]Transform
	types      map[Handle]tile.TypeRef
	toggles    map[Handle]int
	spawned    []SpawnRequest
	destroyed  []Handle
	spawnErr   error
	destroyErr error
	failAfter  int // спавн с номером >= failAfter падает, если > 0
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{
		objects: make(map[Handle]Transform),
		types:   make(map[Handle]tile.TypeRef),
		toggles: make(map[Handle]int),
	}
}

func (f *fakeSpawner) Spawn(_ context.Context, req SpawnRequest) (Handle, error) {
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	if f.failAfter > 0 && len(f.spawned) >= f.failAfter {
		return 0, errors.New("spawner exhausted")
	}
	f.next++
	f.objects[f.next] = Transform{Position: req.Position, Yaw: req.Yaw, Scale: req.Scale}
	f.types[f.next] = req.Type
	f.spawned = append(f.spawned, req)
	return f.next, nil
}

func (f *fakeSpawner) Destroy(_ context.Context, h Handle) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	if _, ok := f.objects[h]; !ok {
		return errors.New("unknown handle")
	}
	delete(f.objects, h)
	f.destroyed = append(f.destroyed, h)
	return nil
}

func (f *fakeSpawner) ToggleVisibility(h Handle) error {
	f.toggles[h]++
	return nil
}

func (f *fakeSpawner) Transform(h Handle) (Transform, bool) {
	tr, ok := f.objects[h]
	return tr, ok
}

// fakeObserver фиксированная позиция наблюдателя
type fakeObserver struct {
	pos vec.Vec3Float
	err error
}

func (o *fakeObserver) Position(context.Context) (vec.Vec3Float, error) {
	return o.pos, o.err
}

// firstRand всегда выбирает первого кандидата
type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("world", io.Discard, logging.ERROR)
}

func def(key string, conns map[tile.Direction]tile.Connection) *tile.Definition {
	d := &tile.Definition{Key: key, Type: tile.TypeRef(key), CanSpawnHere: true}
	for dir, c := range conns {
		d.Connections[dir] = c
	}
	return d
}

func testGrid(t *testing.T) Grid {
	t.Helper()
	g, err := NewGrid(vec.Vec3Float{X: 2000, Y: 2000, Z: 1000})
	require.NoError(t, err)
	return g
}

func newTestGenerator(t *testing.T, cfg GeneratorConfig, rng Rand, defs ...*tile.Definition) (*Generator, *fakeSpawner) {
	t.Helper()
	if cfg.Grid.CellSize == (vec.Vec3Float{}) {
		cfg.Grid = testGrid(t)
	}
	if rng == nil {
		rng = firstRand{}
	}
	spawner := newFakeSpawner()
	gen, err := NewGenerator(cfg, tile.MustCatalog(defs...), NewMemoryTileStore(), spawner, rng)
	require.NoError(t, err)
	gen.SetLogger(quietLogger())
	return gen, spawner
}

// orientationOf читает ориентацию занятой ячейки так же, как генератор
func orientationOf(t *testing.T, sp *fakeSpawner, inst TileInstance) (tile.Rotation, vec.Vec3Float) {
	t.Helper()
	tr, ok := sp.Transform(inst.Handle)
	require.True(t, ok, "нет объекта %d", inst.Handle)
	return tile.ActorTileRotation(tr.Yaw), tr.Scale
}

// decisionLog запоминает порядковый номер последнего решения по ячейке
type decisionLog struct {
	seq   int
	order map[vec.Vec3]int
}

func newDecisionLog() *decisionLog {
	return &decisionLog{order: make(map[vec.Vec3]int)}
}

func (l *decisionLog) PublishTile(_ context.Context, ev TileEvent) error {
	l.seq++
	if ev.EventType == EventTypeTileUnloaded {
		delete(l.order, ev.Coord)
		return nil
	}
	l.order[ev.Coord] = l.seq
	return nil
}

// assertInvariants проверяет совместимость соединений, вертикальное выравнивание
// и чёрные списки по всей карте
func assertInvariants(t *testing.T, gen *Generator, sp *fakeSpawner, decisions *decisionLog, symmetricBlacklist bool) {
	t.Helper()
	store := gen.Store()

	err := store.Range(func(c vec.Vec3, inst TileInstance) bool {
		if !inst.Occupied() {
			return true
		}
		rot, scale := orientationOf(t, sp, inst)

		for _, d := range tile.AllDirections() {
			nc := c.Add(d.Offset())
			n, ok, err := store.Get(nc)
			require.NoError(t, err)
			if !ok {
				continue
			}
			mine := tile.GetConnection(inst.Def, d, rot, scale)

			if !n.Occupied() {
				// Пустая ячейка ограничивает только тех, кто решён после неё
				if decisions != nil && decisions.order[nc] < decisions.order[c] {
					require.Equal(t, tile.Empty, mine, "%v -> %s в пустую %v", c, d, nc)
				}
				continue
			}

			nRot, nScale := orientationOf(t, sp, n)
			theirs := tile.GetConnection(n.Def, tile.ReverseDirection(d), nRot, nScale)
			require.Equal(t, mine, theirs, "несовпадение %v(%s) %s %v(%s)", c, inst.Def.Key, d, nc, n.Def.Key)

			if d.IsVertical() && mine != tile.Empty {
				require.Equal(t, rot, nRot, "поворот стопки %v/%v", c, nc)
				require.Equal(t, scale, nScale, "отражение стопки %v/%v", c, nc)
			}

			// Без симметрии запрет гарантирован только для тайла, поставленного позже
			if symmetricBlacklist || decisions == nil || decisions.order[c] > decisions.order[nc] {
				require.False(t, inst.Def.Forbids(n.Def.Type), "%s соседствует с запрещённым %s", inst.Def.Key, n.Def.Key)
			}
		}
		return true
	})
	require.NoError(t, err)
}

// randomCatalog строит каталог из случайных определений
func randomCatalog(seed int64, size int) []*tile.Definition {
	rng := rand.New(rand.NewSource(seed))
	conns := []tile.Connection{tile.Empty, tile.Empty, tile.Path, tile.PathStairsTop}

	defs := make([]*tile.Definition, 0, size)
	for i := 0; i < size; i++ {
		d := &tile.Definition{
			Key:           string(rune('a'+i)) + "_tile",
			Type:          tile.TypeRef(string(rune('A' + i))),
			MirrorAllowed: rng.Intn(2) == 0,
			CanSpawnHere:  i == 0 || rng.Intn(3) > 0,
		}
		for _, dir := range tile.AllDirections() {
			d.Connections[dir] = conns[rng.Intn(len(conns))]
		}
		if i > 0 && rng.Intn(3) == 0 {
			d.Blacklist = tile.NewBlacklist(tile.TypeRef(string(rune('A' + rng.Intn(i)))))
		}
		defs = append(defs, d)
	}
	// Пустой тайл, чтобы карта не состояла из одних пустот
	defs = append(defs, &tile.Definition{Key: "void", Type: "Void", CanSpawnHere: true})
	return defs
}
