package jsonschema

import (
	"reflect"
	"strings"
)

// Schema is a minimal JSON Schema representation, sufficient for guiding LLM
// structured output. It intentionally covers only the subset the providers
// understand: objects, arrays, primitives, descriptions, and required lists.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
}

// GenerateJSONSchema builds a Schema by reflecting over T.
//
// Conventions:
//   - struct fields map to object properties named by their json tag
//     (fields tagged "-" are skipped)
//   - every non-pointer field is required; pointer fields are optional
//   - the `description` struct tag populates the property description
//   - the `enum` struct tag (comma-separated) constrains string fields
func GenerateJSONSchema[T any]() *Schema {
	return fromType(reflect.TypeFor[T]())
}

func fromType(t reflect.Type) *Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: fromType(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: fromType(t.Elem())}
	case reflect.Struct:
		return fromStruct(t)
	default:
		// Interfaces and anything else degrade to an unconstrained value.
		return &Schema{}
	}
}

func fromStruct(t reflect.Type) *Schema {
	schema := &Schema{
		Type:                 "object",
		Properties:           make(map[string]*Schema),
		AdditionalProperties: false,
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		if name == "" {
			continue
		}

		property := fromType(field.Type)
		if description := field.Tag.Get("description"); description != "" {
			property.Description = description
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			property.Enum = strings.Split(enum, ",")
		}

		schema.Properties[name] = property
		if field.Type.Kind() != reflect.Pointer {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// jsonFieldName resolves the property name from the json tag, falling back to
// the Go field name. Returns "" for fields excluded with json:"-".
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
