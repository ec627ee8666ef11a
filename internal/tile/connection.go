package tile

import (
	"fmt"
	"sync"
)

// Connection тип соединения грани. Две соседние грани совместимы,
// только если их типы совпадают.
type Connection uint16

// Встроенные типы соединений
const (
	Empty Connection = iota
	Path
	PathStairsTop
	PathStairsTurnTop

	firstCustomConnection
)

var (
	connMu    sync.RWMutex
	connNames = map[Connection]string{
		Empty:             "empty",
		Path:              "path",
		PathStairsTop:     "path_stairs_top",
		PathStairsTurnTop: "path_stairs_turn_top",
	}
	connByName = map[string]Connection{
		"empty":                Empty,
		"path":                 Path,
		"path_stairs_top":      PathStairsTop,
		"path_stairs_turn_top": PathStairsTurnTop,
	}
	nextConnection = firstCustomConnection
)

// RegisterConnection регистрирует пользовательский тип соединения.
// Повторная регистрация того же имени возвращает уже выданное значение.
func RegisterConnection(name string) (Connection, error) {
	if name == "" {
		return 0, fmt.Errorf("пустое имя соединения")
	}

	connMu.Lock()
	defer connMu.Unlock()

	if c, ok := connByName[name]; ok {
		return c, nil
	}
	if nextConnection == ^Connection(0) {
		return 0, fmt.Errorf("исчерпаны идентификаторы соединений")
	}

	c := nextConnection
	nextConnection++
	connByName[name] = c
	connNames[c] = name
	return c, nil
}

// ParseConnection ищет зарегистрированный тип соединения по имени
func ParseConnection(name string) (Connection, bool) {
	connMu.RLock()
	defer connMu.RUnlock()
	c, ok := connByName[name]
	return c, ok
}

func (c Connection) String() string {
	connMu.RLock()
	defer connMu.RUnlock()
	if name, ok := connNames[c]; ok {
		return name
	}
	return fmt.Sprintf("connection(%d)", uint16(c))
}

// MarshalText кодирует соединение по имени (для JSON/YAML)
func (c Connection) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText разбирает только уже зарегистрированные имена
func (c *Connection) UnmarshalText(text []byte) error {
	parsed, ok := ParseConnection(string(text))
	if !ok {
		return fmt.Errorf("неизвестный тип соединения %q", string(text))
	}
	*c = parsed
	return nil
}
