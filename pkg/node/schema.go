package node

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateAgainstSchema validates value against a JSON Schema document
// (an arbitrary map/slice/scalar tree, as produced by a Describe().
// InputSchema/OutputSchema field decoded from JSON). It is a standalone
// helper: Registry.Create and the executor do not call it, so a node's
// declared input/output schemas are not checked automatically.
func ValidateAgainstSchema(schema any, value any) error {
	if schema == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("node: invalid schema: %w", err)
	}
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("node: failed to serialize value: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(valueBytes),
	)
	if err != nil {
		return fmt.Errorf("node: schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("node: schema validation errors: %v", msgs)
}
