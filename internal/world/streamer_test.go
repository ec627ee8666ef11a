package world

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// smallGrid сетка, при которой куб сканирования остаётся маленьким
func smallGrid(t *testing.T) Grid {
	t.Helper()
	g, err := NewGrid(vec.Vec3Float{X: 2, Y: 2, Z: 1})
	require.NoError(t, err)
	return g
}

func newTestStreamer(t *testing.T, cfg GeneratorConfig, rng Rand, radius float64, defs ...*tile.Definition) (*Streamer, *fakeSpawner, *fakeObserver) {
	t.Helper()
	cfg.Grid = smallGrid(t)
	gen, sp := newTestGenerator(t, cfg, rng, defs...)
	obs := &fakeObserver{}
	s, err := NewStreamer(gen, obs, radius)
	require.NoError(t, err)
	return s, sp, obs
}

func TestStreamer_Boundary(t *testing.T) {
	s, _, obs := newTestStreamer(t, GeneratorConfig{}, nil, 5, def("A", nil))
	ctx := context.Background()
	grid := s.Generator().Grid()

	report, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{}, report.Center)
	assert.Equal(t, 7*7*11, report.Scanned)

	inRange := 0
	for z := -5; z <= 5; z++ {
		for y := -3; y <= 3; y++ {
			for x := -3; x <= 3; x++ {
				c := vec.Vec3{X: x, Y: y, Z: z}
				_, ok, err := s.Generator().Store().Get(c)
				require.NoError(t, err)
				if grid.GridToWorld(c).Length() <= 5 {
					inRange++
					assert.True(t, ok, "ячейка %v должна быть решена", c)
				} else {
					assert.False(t, ok, "ячейка %v вне радиуса", c)
				}
			}
		}
	}
	assert.Equal(t, inRange, s.Generator().Store().Len())
	assert.Equal(t, inRange, report.Placed+report.Empty)

	// Сдвигаем наблюдателя: всё дальше радиуса выгружено
	obs.pos = vec.Vec3Float{X: 6}
	report, err = s.Tick(ctx)
	require.NoError(t, err)
	assert.Positive(t, report.Unloaded)

	require.NoError(t, s.Generator().Store().Range(func(c vec.Vec3, _ TileInstance) bool {
		assert.LessOrEqual(t, grid.GridToWorld(c).DistanceTo(obs.pos), 5.0, "ячейка %v", c)
		return true
	}))
}

func TestStreamer_TeleportSweepsOutsideCube(t *testing.T) {
	s, sp, obs := newTestStreamer(t, GeneratorConfig{}, nil, 3, def("A", nil))
	ctx := context.Background()

	_, err := s.Tick(ctx)
	require.NoError(t, err)
	placed := len(sp.spawned)
	require.Positive(t, placed)

	obs.pos = vec.Vec3Float{X: 1000, Y: -1000, Z: 500}
	report, err := s.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, placed, report.Unloaded)
	assert.Len(t, sp.destroyed, placed)

	grid := s.Generator().Grid()
	require.NoError(t, s.Generator().Store().Range(func(c vec.Vec3, _ TileInstance) bool {
		assert.LessOrEqual(t, grid.GridToWorld(c).DistanceTo(obs.pos), 3.0)
		return true
	}))
}

func TestStreamer_NearestFirst(t *testing.T) {
	s, sp, obs := newTestStreamer(t, GeneratorConfig{}, nil, 6, def("A", nil))
	obs.pos = vec.Vec3Float{X: 0.4, Y: -0.3, Z: 0.2}

	_, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sp.spawned)

	prev := -1.0
	for _, req := range sp.spawned {
		d := req.Position.DistanceTo(obs.pos)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestStreamer_InvariantsWhileWalking(t *testing.T) {
	for _, symmetric := range []bool{false, true} {
		for seed := int64(1); seed <= 4; seed++ {
			defs := randomCatalog(seed, 6)
			s, sp, obs := newTestStreamer(t, GeneratorConfig{SymmetricBlacklist: symmetric}, rand.New(rand.NewSource(seed)), 4, defs...)
			decisions := newDecisionLog()
			s.Generator().SetEventSink(decisions)

			walk := rand.New(rand.NewSource(seed * 31))
			for i := 0; i < 12; i++ {
				_, err := s.Tick(context.Background())
				require.NoError(t, err)

				assertInvariants(t, s.Generator(), sp, decisions, symmetric)

				obs.pos = obs.pos.Add(vec.Vec3Float{
					X: float64(walk.Intn(5) - 2),
					Y: float64(walk.Intn(5) - 2),
					Z: float64(walk.Intn(3) - 1),
				})
			}
		}
	}
}

func TestStreamer_Deterministic(t *testing.T) {
	run := func() map[vec.Vec3]string {
		defs := randomCatalog(99, 5)
		s, sp, obs := newTestStreamer(t, GeneratorConfig{}, rand.New(rand.NewSource(7)), 4, defs...)
		for i := 0; i < 3; i++ {
			_, err := s.Tick(context.Background())
			require.NoError(t, err)
			obs.pos = obs.pos.Add(vec.Vec3Float{X: 1.5, Z: 0.5})
		}

		out := make(map[vec.Vec3]string)
		require.NoError(t, s.Generator().Store().Range(func(c vec.Vec3, inst TileInstance) bool {
			if !inst.Occupied() {
				out[c] = "empty"
				return true
			}
			rot, scale := orientationOf(t, sp, inst)
			out[c] = inst.Def.Key + "/" + rot.String() + "/" + boolString(tile.IsMirrored(scale))
			return true
		}))
		return out
	}

	assert.Equal(t, run(), run())
}

func boolString(b bool) string {
	if b {
		return "m"
	}
	return "-"
}

func TestStreamer_SpawnFailureAbortsTick(t *testing.T) {
	s, sp, _ := newTestStreamer(t, GeneratorConfig{}, nil, 4, def("A", nil))
	sp.failAfter = 3

	report, err := s.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawnFailed)
	assert.Equal(t, 3, report.Placed)
	assert.Equal(t, 3, s.Generator().Store().Len())
	assert.Greater(t, report.Queued, 3)

	// Следующий тик дозаполняет ячейки
	sp.failAfter = 0
	report, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Queued, report.Placed)
}

func TestStreamer_ObserverError(t *testing.T) {
	s, _, obs := newTestStreamer(t, GeneratorConfig{}, nil, 4, def("A", nil))
	obs.err = errors.New("нет игрока")

	_, err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, s.Generator().Store().Len())
}

func TestStreamer_CancelledContext(t *testing.T) {
	s, _, _ := newTestStreamer(t, GeneratorConfig{}, nil, 4, def("A", nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamer_DebugDraw(t *testing.T) {
	s, _, obs := newTestStreamer(t, GeneratorConfig{}, nil, 2, def("A", nil))
	rec := NewScanRecorder()
	s.SetDebugDrawer(rec)
	obs.pos = vec.Vec3Float{X: 2}

	report, err := s.Tick(context.Background())
	require.NoError(t, err)

	snap := rec.Last()
	assert.Equal(t, vec.Vec3{X: 1}, snap.Center)
	assert.Len(t, snap.Cells, report.Scanned)
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 1, Z: 0.5}, snap.HalfSize)

	inRange := 0
	for _, c := range snap.Cells {
		if c.InRange {
			inRange++
		}
	}
	assert.Equal(t, report.Placed+report.Empty, inRange)
}

func TestNewStreamer_Validation(t *testing.T) {
	gen, _ := newTestGenerator(t, GeneratorConfig{}, nil, def("A", nil))
	_, err := NewStreamer(gen, &fakeObserver{}, 0)
	assert.Error(t, err)
	_, err = NewStreamer(nil, &fakeObserver{}, 10)
	assert.Error(t, err)
}

func TestRunner(t *testing.T) {
	s, _, _ := newTestStreamer(t, GeneratorConfig{}, nil, 3, def("A", nil))
	r := NewRunner(s, time.Millisecond)

	report, err := r.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Ticks())

	last, lastErr := r.LastReport()
	assert.NoError(t, lastErr)
	assert.Equal(t, report, last)

	var decided int
	r.View(func(gen *Generator) {
		decided = gen.Store().Len()
	})
	assert.Equal(t, report.Placed+report.Empty, decided)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
	assert.Greater(t, r.Ticks(), uint64(1))
	assert.Zero(t, r.Failures())
}
