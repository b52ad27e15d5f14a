package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses LLM output into the target type T.
//
// For primitive types it converts directly. For structs, maps, and slices it
// unmarshals JSON; when that fails it repairs the JSON with jsonrepair and
// retries, then falls back to unwrapping schema-shaped values ({"type": ...,
// "value": ...}) that models sometimes emit when confusing a schema with data.
func ParseStringAs[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(stripCodeFence(content))

	switch reflect.TypeFor[T]().Kind() {
	case reflect.String:
		if len(content) > 0 && content[0] == '{' {
			if unwrapped, err := tryUnwrapPrimitive(content); err == nil {
				reflect.ValueOf(&result).Elem().SetString(unwrapped)
				return result, nil
			}
		}
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil

	case reflect.Bool:
		value, err := strconv.ParseBool(content)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetBool(value)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetInt(value)
		return result, nil

	case reflect.Float32, reflect.Float64:
		value, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		reflect.ValueOf(&result).Elem().SetFloat(value)
		return result, nil

	default:
		err := json.Unmarshal([]byte(content), &result)
		if err == nil {
			return result, nil
		}

		repairedJSON, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
		}

		err = json.Unmarshal([]byte(repairedJSON), &result)
		if err == nil {
			return result, nil
		}

		if unwrapped, unwrapErr := unwrapSchemaValues(repairedJSON); unwrapErr == nil {
			if json.Unmarshal([]byte(unwrapped), &result) == nil {
				return result, nil
			}
		}

		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
}

// stripCodeFence removes a surrounding markdown code fence, a frequent wrapper
// around JSON answers.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return trimmed
}

// tryUnwrapPrimitive unwraps a primitive value from a {"type": ..., "value": ...}
// structure, returning its string representation.
func tryUnwrapPrimitive(content string) (string, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}

	if _, hasType := data["type"]; !hasType {
		return "", fmt.Errorf("not a schema-wrapped value")
	}
	value, hasValue := data["value"]
	if !hasValue || len(data) != 2 {
		return "", fmt.Errorf("not a schema-wrapped value")
	}

	switch typed := value.(type) {
	case string:
		return typed, nil
	case float64, bool:
		return fmt.Sprintf("%v", typed), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaValues rewrites JSON whose values are schema-shaped wrappers into
// plain JSON, e.g. {"name": {"type": "string", "value": "Kim"}} -> {"name": "Kim"}.
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	encoded, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func recursiveUnwrap(data any) any {
	switch typed := data.(type) {
	case map[string]any:
		if _, hasType := typed["type"]; hasType {
			if value, hasValue := typed["value"]; hasValue && len(typed) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(typed))
		for key, value := range typed {
			result[key] = recursiveUnwrap(value)
		}
		return result
	case []any:
		result := make([]any, len(typed))
		for index, value := range typed {
			result[index] = recursiveUnwrap(value)
		}
		return result
	default:
		return data
	}
}
