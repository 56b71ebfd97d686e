// Package workitem holds the schemas of model output and decodes them
// leniently.
package workitem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrMalformed matches every decoding failure.
var ErrMalformed = errors.New("malformed output")

// ParseError reports which format failed to decode.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s output: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformed) true.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// Decode parses data into v. JSON may carry comments and trailing commas;
// input that does not start with { or [ is read as YAML.
func Decode(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &ParseError{Format: "json", Err: errors.New("empty input")}
	}
	if data[0] == '{' || data[0] == '[' {
		if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
			return &ParseError{Format: "json", Err: err}
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &ParseError{Format: "yaml", Err: err}
	}
	return nil
}

// Pretty re-encodes JSON or YAML output as indented JSON, validating it.
func Pretty(data []byte) ([]byte, error) {
	var v any
	if err := Decode(data, &v); err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}
	return append(out, '\n'), nil
}
