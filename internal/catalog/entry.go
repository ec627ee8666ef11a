// Package catalog загружает каталог тайлов из файлов и MongoDB и проверяет его целостность.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/tile"
)

// ErrInvalidCatalog каталог нарушает структуру или ссылается на неизвестные значения
var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry строка каталога в сыром виде (YAML, JSON, BSON)
type Entry struct {
	Key           string            `yaml:"key" json:"key" bson:"key"`
	Type          string            `yaml:"type" json:"type" bson:"type"`
	MirrorAllowed bool              `yaml:"mirror_allowed,omitempty" json:"mirror_allowed,omitempty" bson:"mirror_allowed"`
	CanSpawnHere  bool              `yaml:"can_spawn_here,omitempty" json:"can_spawn_here,omitempty" bson:"can_spawn_here"`
	Blacklist     []string          `yaml:"blacklist,omitempty" json:"blacklist,omitempty" bson:"blacklist,omitempty"`
	Connections   map[string]string `yaml:"connections" json:"connections" bson:"connections"`
}

// Document файл каталога целиком
type Document struct {
	// Connections пользовательские типы соединений помимо встроенных
	Connections []string `yaml:"connections,omitempty" json:"connections,omitempty"`
	Tiles       []Entry  `yaml:"tiles" json:"tiles"`
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

// Build проверяет документ и собирает каталог в исходном порядке строк.
// Неизвестные типы в чёрных списках допустимы и только логируются.
func Build(doc Document) (*tile.Catalog, error) {
	for _, name := range doc.Connections {
		if _, err := tile.RegisterConnection(name); err != nil {
			return nil, invalid("соединение %q: %v", name, err)
		}
	}

	if len(doc.Tiles) == 0 {
		return nil, invalid("каталог пуст")
	}

	types := make(map[string]struct{}, len(doc.Tiles))
	for _, e := range doc.Tiles {
		types[e.Type] = struct{}{}
	}

	defs := make([]*tile.Definition, 0, len(doc.Tiles))
	for i, e := range doc.Tiles {
		def, err := e.definition()
		if err != nil {
			return nil, invalid("строка %d (%s): %v", i, e.Key, err)
		}
		for _, b := range e.Blacklist {
			if _, ok := types[b]; !ok {
				logging.GetCatalogLogger().Warn("%s: тип %q в чёрном списке отсутствует в каталоге", e.Key, b)
			}
		}
		defs = append(defs, def)
	}

	cat, err := tile.NewCatalog(defs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return cat, nil
}

func (e Entry) definition() (*tile.Definition, error) {
	if e.Key == "" || e.Type == "" {
		return nil, fmt.Errorf("ключ и тип обязательны")
	}

	def := &tile.Definition{
		Key:           e.Key,
		Type:          tile.TypeRef(e.Type),
		MirrorAllowed: e.MirrorAllowed,
		CanSpawnHere:  e.CanSpawnHere,
	}

	blacklist := make([]tile.TypeRef, 0, len(e.Blacklist))
	for _, b := range e.Blacklist {
		blacklist = append(blacklist, tile.TypeRef(b))
	}
	def.Blacklist = tile.NewBlacklist(blacklist...)

	for name := range e.Connections {
		if _, err := tile.ParseDirection(name); err != nil {
			return nil, err
		}
	}
	for _, d := range tile.AllDirections() {
		name, ok := e.Connections[d.String()]
		if !ok {
			return nil, fmt.Errorf("нет соединения для направления %s", d)
		}
		conn, ok := tile.ParseConnection(name)
		if !ok {
			return nil, fmt.Errorf("неизвестный тип соединения %q (%s)", name, d)
		}
		def.Connections[d] = conn
	}
	return def, nil
}

// Export переводит каталог обратно в документ (порядок сохраняется)
func Export(cat *tile.Catalog) Document {
	var doc Document
	custom := map[string]struct{}{}

	for _, def := range cat.Definitions() {
		e := Entry{
			Key:           def.Key,
			Type:          string(def.Type),
			MirrorAllowed: def.MirrorAllowed,
			CanSpawnHere:  def.CanSpawnHere,
			Connections:   make(map[string]string, tile.DirectionCount),
		}
		for t := range def.Blacklist {
			e.Blacklist = append(e.Blacklist, string(t))
		}
		sort.Strings(e.Blacklist)

		for _, d := range tile.AllDirections() {
			c := def.Connections[d]
			e.Connections[d.String()] = c.String()
			if c > tile.PathStairsTurnTop {
				custom[c.String()] = struct{}{}
			}
		}
		doc.Tiles = append(doc.Tiles, e)
	}

	for name := range custom {
		doc.Connections = append(doc.Connections, name)
	}
	sort.Strings(doc.Connections)
	return doc
}
