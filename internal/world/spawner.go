package world

import (
	"context"
	"errors"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

var (
	// ErrSpawnFailed спавнер не смог создать объект
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrDestroyFailed спавнер не смог удалить объект
	ErrDestroyFailed = errors.New("destroy failed")
)

// SpawnRequest параметры создания объекта тайла
type SpawnRequest struct {
	Type     tile.TypeRef
	Position vec.Vec3Float
	Yaw      float64 // градусы
	Scale    vec.Vec3Float
	Parent   Handle
}

// Transform итоговое мировое преобразование объекта
type Transform struct {
	Position vec.Vec3Float
	Yaw      float64
	Scale    vec.Vec3Float
}

// Spawner внешняя среда, создающая и удаляющая объекты мира.
// Вызовы синхронные.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (Handle, error)
	Destroy(ctx context.Context, h Handle) error
	ToggleVisibility(h Handle) error
	// Transform возвращает фактическое преобразование созданного объекта
	Transform(h Handle) (Transform, bool)
}

// ObserverSource источник позиции наблюдателя, опрашивается раз за тик
type ObserverSource interface {
	Position(ctx context.Context) (vec.Vec3Float, error)
}
