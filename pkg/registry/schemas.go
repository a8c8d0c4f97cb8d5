package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidOptions is returned when node options fail schema validation.
var ErrInvalidOptions = errors.New("options do not match operation schema")

// ValidateOptions checks node options against a factory's JSON schema. A
// nil or empty schema accepts anything.
func ValidateOptions(schema map[string]any, options map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	if options == nil {
		options = map[string]any{}
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(optionsJSON),
	)
	if err != nil {
		return fmt.Errorf("running schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	message := ""
	for _, issue := range result.Errors() {
		if message != "" {
			message += "; "
		}

		message += issue.String()
	}

	return fmt.Errorf("%w: %s", ErrInvalidOptions, message)
}
