package synth

import (
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// maxDepth bounds recursion over self-referential component schemas.
const maxDepth = 8

// ValueFunc fabricates a leaf value for a schema. fieldName is the property
// name the value is generated for ("" at the document root).
type ValueFunc func(schema *openapi3.Schema, fieldName string) any

// generate walks a schema recursively. path is the dotted property path from
// the document root, used to look up seed data in the request body JSON.
func (s *Synthesizer) generate(schema *openapi3.Schema, path, seed string, depth int) any {
	if schema == nil || depth > maxDepth {
		return nil
	}

	switch schemaType(schema) {
	case "object":
		return s.generateObject(schema, path, seed, depth)
	case "array":
		return s.generateArray(schema, path, seed, depth)
	default:
		return s.generateLeaf(schema, path, seed)
	}
}

func (s *Synthesizer) generateObject(schema *openapi3.Schema, path, seed string, depth int) map[string]any {
	result := make(map[string]any)

	// Sorted property order keeps generated bodies reproducible across runs.
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		result[name] = s.generate(ref.Value, joinPath(path, name), seed, depth+1)
	}
	return result
}

func (s *Synthesizer) generateArray(schema *openapi3.Schema, path, seed string, depth int) []any {
	if schema.Items == nil || schema.Items.Value == nil {
		return []any{}
	}

	count := 1
	if schema.MinItems > uint64(count) {
		count = int(schema.MinItems)
	}
	if schema.MaxItems != nil && uint64(count) > *schema.MaxItems {
		count = int(*schema.MaxItems)
	}

	result := make([]any, count)
	for i := range result {
		result[i] = s.generate(schema.Items.Value, path, seed, depth+1)
	}
	return result
}

func (s *Synthesizer) generateLeaf(schema *openapi3.Schema, path, seed string) any {
	if seed != "" && path != "" {
		if v := gjson.Get(seed, path); v.Exists() {
			return v.Value()
		}
	}

	fieldName := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		fieldName = path[i+1:]
	}
	return s.valueFn(schema, fieldName)
}

// DefaultValue is the default leaf strategy: declared example, default and
// enum values win; otherwise a fixed, format-aware value per type.
func DefaultValue(schema *openapi3.Schema, _ string) any {
	if schema.Example != nil {
		return schema.Example
	}
	if schema.Default != nil {
		return schema.Default
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}

	switch schemaType(schema) {
	case "string":
		return defaultString(schema)
	case "integer":
		if schema.Min != nil {
			return int64(*schema.Min)
		}
		return int64(1)
	case "number":
		if schema.Min != nil {
			return *schema.Min
		}
		return 1.0
	case "boolean":
		return true
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	default:
		return nil
	}
}

func defaultString(schema *openapi3.Schema) string {
	var v string
	switch schema.Format {
	case "email":
		v = "user@example.com"
	case "uri", "url":
		v = "https://example.com"
	case "uuid":
		v = uuid.New().String()
	case "date":
		v = time.Now().Format("2006-01-02")
	case "date-time":
		v = time.Now().Format(time.RFC3339)
	case "hostname":
		v = "example.com"
	case "ipv4":
		v = "192.168.1.1"
	case "ipv6":
		v = "::1"
	default:
		v = "string"
	}

	if schema.MaxLength != nil && uint64(len(v)) > *schema.MaxLength {
		v = v[:*schema.MaxLength]
	}
	return v
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type != nil {
		if types := schema.Type.Slice(); len(types) > 0 {
			return types[0]
		}
	}
	if len(schema.Properties) > 0 {
		return "object"
	}
	return ""
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
