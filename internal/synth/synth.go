// Package synth builds mock responses from matched OpenAPI operations:
// it picks the success status code for the request method and generates a
// structurally valid JSON body from the declared response schema.
package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrNoUsableResponse is returned when none of the tiered status candidates
// for the method are declared on the operation. Recoverable: the caller logs
// and skips installing an intercept for that operation.
var ErrNoUsableResponse = errors.New("operation declares no usable success response")

// Result is a synthesized mock response. Body is always JSON-serializable
// and never nil at the top level.
type Result struct {
	StatusCode int
	Body       any
}

// Synthesizer turns matched operations into mock responses. Leaf-value
// fabrication is delegated to a replaceable ValueFunc; the synthesizer's
// hard guarantee is the status selection and body shape, not the fabricated
// values.
type Synthesizer struct {
	valueFn ValueFunc
}

// New creates a synthesizer. A nil valueFn uses DefaultValue.
func New(valueFn ValueFunc) *Synthesizer {
	if valueFn == nil {
		valueFn = DefaultValue
	}
	return &Synthesizer{valueFn: valueFn}
}

// Synthesize picks the status code for the method and generates the body
// from the chosen response's JSON schema. seedBody, when non-empty, is the
// request body JSON threaded through as contextual seed data for POST/PUT.
// An absent or unresolved schema yields an empty object.
func (s *Synthesizer) Synthesize(op *openapi3.Operation, method, seedBody string) (*Result, error) {
	status, resp, err := selectResponse(op, method)
	if err != nil {
		return nil, err
	}

	schema := responseSchema(resp)
	if schema == nil {
		return &Result{StatusCode: status, Body: map[string]any{}}, nil
	}

	body := s.generate(schema, "", seedBody, 0)
	if body == nil {
		body = map[string]any{}
	}
	return &Result{StatusCode: status, Body: body}, nil
}

// statusCandidates returns the tiered status preference for a method:
// POST prefers 201 then 200, PUT prefers 200 then 201, everything else
// 200, 201, 204. First declared tier wins.
func statusCandidates(method string) []int {
	switch strings.ToUpper(method) {
	case "POST":
		return []int{201, 200}
	case "PUT":
		return []int{200, 201}
	default:
		return []int{200, 201, 204}
	}
}

func selectResponse(op *openapi3.Operation, method string) (int, *openapi3.Response, error) {
	if op == nil || op.Responses == nil {
		return 0, nil, ErrNoUsableResponse
	}
	for _, code := range statusCandidates(method) {
		ref := op.Responses.Status(code)
		if ref == nil || ref.Value == nil {
			continue
		}
		return code, ref.Value, nil
	}
	return 0, nil, fmt.Errorf("%w for %s", ErrNoUsableResponse, strings.ToUpper(method))
}

// responseSchema resolves the body schema of a response: the JSON media
// type's schema when declared and resolved, nil otherwise. A schema that is
// a $ref the loader could not resolve counts as absent.
func responseSchema(resp *openapi3.Response) *openapi3.Schema {
	if resp == nil || resp.Content == nil {
		return nil
	}

	mt := resp.Content.Get("application/json")
	if mt == nil {
		for mediaType, candidate := range resp.Content {
			if strings.Contains(mediaType, "json") {
				mt = candidate
				break
			}
		}
	}
	if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil
	}
	return mt.Schema.Value
}
