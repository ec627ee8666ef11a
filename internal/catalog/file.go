package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/annel0/tome/internal/tile"
)

// LoadFile читает каталог из YAML или JSON файла
func LoadFile(path string) (*tile.Catalog, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// ReadFile читает и проверяет документ каталога без сборки
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("чтение каталога %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML разбирает YAML документ каталога и проверяет его по схеме
func ParseYAML(data []byte) (Document, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: yaml: %v", ErrInvalidCatalog, err)
	}

	// Схема проверяется по JSON-представлению
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validate(asJSON); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: yaml: %v", ErrInvalidCatalog, err)
	}
	return doc, nil
}

// ParseJSON разбирает JSON документ каталога и проверяет его по схеме
func ParseJSON(data []byte) (Document, error) {
	if err := validate(data); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: json: %v", ErrInvalidCatalog, err)
	}
	return doc, nil
}

// WriteYAML сохраняет документ каталога в YAML
func WriteYAML(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("сериализация каталога: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
