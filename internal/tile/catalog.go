package tile

import "fmt"

// Catalog упорядоченный набор определений тайлов с индексом по ключу
type Catalog struct {
	defs  []*Definition
	byKey map[string]*Definition
}

// NewCatalog создаёт каталог, сохраняя порядок определений
func NewCatalog(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]*Definition, 0, len(defs)),
		byKey: make(map[string]*Definition, len(defs)),
	}
	for _, def := range defs {
		if err := c.add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustCatalog как NewCatalog, но паникует при ошибке. Для тестов и статических таблиц.
func MustCatalog(defs ...*Definition) *Catalog {
	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) add(def *Definition) error {
	if def == nil {
		return fmt.Errorf("пустое определение")
	}
	if def.Key == "" {
		return fmt.Errorf("определение без ключа (тип %q)", def.Type)
	}
	if _, exists := c.byKey[def.Key]; exists {
		return fmt.Errorf("дублирующийся ключ %q", def.Key)
	}
	c.defs = append(c.defs, def)
	c.byKey[def.Key] = def
	return nil
}

// Definitions возвращает определения в порядке каталога. Срез нельзя изменять.
func (c *Catalog) Definitions() []*Definition {
	return c.defs
}

// Lookup ищет определение по ключу
func (c *Catalog) Lookup(key string) (*Definition, bool) {
	def, ok := c.byKey[key]
	return def, ok
}

// Len количество определений
func (c *Catalog) Len() int {
	return len(c.defs)
}
