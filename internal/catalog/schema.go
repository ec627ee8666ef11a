package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed catalog.schema.json
var schemaSource string

var catalogSchema = jsonschema.MustCompileString("catalog.schema.json", schemaSource)

// validate проверяет JSON-представление документа по встроенной схеме
func validate(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: json: %v", ErrInvalidCatalog, err)
	}
	if err := catalogSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}
