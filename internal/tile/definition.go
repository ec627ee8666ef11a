package tile

// TypeRef непрозрачный идентификатор типа объекта, который создаёт спавнер.
// Сравнивается по значению, используется в чёрных списках.
type TypeRef string

// Definition строка каталога тайлов. Неизменяема после загрузки.
type Definition struct {
	Key           string
	Type          TypeRef
	MirrorAllowed bool
	CanSpawnHere  bool
	Blacklist     map[TypeRef]struct{}
	// Connections в собственной (неповёрнутой, неотражённой) ориентации,
	// индексируются Direction
	Connections [DirectionCount]Connection
}

// Forbids проверяет, запрещён ли тип соседа чёрным списком
func (d *Definition) Forbids(t TypeRef) bool {
	if len(d.Blacklist) == 0 {
		return false
	}
	_, ok := d.Blacklist[t]
	return ok
}

// NewBlacklist собирает множество типов
func NewBlacklist(types ...TypeRef) map[TypeRef]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[TypeRef]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}
