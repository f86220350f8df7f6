// Package matcher implements the scoring search that resolves a request
// path and method to the best-matching operation across an endpoint's
// loaded specifications.
package matcher

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/specnock/specnock/internal/registry"
)

// Match score constants. A matched template contributes the base score plus
// the per-segment bonus for every slash-delimited segment, so longer, more
// specific templates outrank shorter ones.
const (
	// ScoreBase is the score every matched template starts from.
	ScoreBase = 100

	// ScoreSegment is the bonus per slash-delimited template segment.
	ScoreSegment = 10
)

// ErrSpecNotFound is returned when no loaded specification declares an
// operation matching the request path and method. Recoverable: the caller
// proceeds without installing an intercept.
var ErrSpecNotFound = errors.New("no specification matches request")

// versionPrefix matches a /v{N} leading path segment.
var versionPrefix = regexp.MustCompile(`^/v\d+(/.*)?$`)

// Match is the outcome of a successful scoring search.
type Match struct {
	Entry     *registry.Entry
	SpecKey   string
	Template  string
	BasePath  string
	Score     int
	Operation *openapi3.Operation

	// VersionStripped reports that the match was found only after removing
	// the request path's /v{N} prefix.
	VersionStripped bool
}

// Matcher scores operations across specifications.
type Matcher struct {
	defaultBasePath string
}

// New creates a matcher. defaultBasePath is the effective base path used for
// specifications that declare no server URL; empty means "/".
func New(defaultBasePath string) *Matcher {
	if defaultBasePath == "" {
		defaultBasePath = "/"
	}
	return &Matcher{defaultBasePath: normalizeBasePath(defaultBasePath)}
}

// Match finds the single best-matching operation for a request path and
// method across the given specifications. The strictly highest score wins;
// ties fall to the first encountered candidate (specification load order,
// then lexical template order within one specification, since the parser
// does not retain declaration order). A request path carrying a version
// prefix is retried with the prefix stripped only when no template matches
// the prefixed path.
func (m *Matcher) Match(entries []*registry.Entry, requestPath, method string) (*Match, error) {
	method = strings.ToLower(method)
	if requestPath == "" {
		requestPath = "/"
	}

	if best := m.scan(entries, requestPath, method); best != nil {
		return best, nil
	}

	if stripped, ok := stripVersionPrefix(requestPath); ok {
		if best := m.scan(entries, stripped, method); best != nil {
			best.VersionStripped = true
			return best, nil
		}
	}

	return nil, fmt.Errorf("%w: %s %s", ErrSpecNotFound, strings.ToUpper(method), requestPath)
}

// scan runs one scoring pass over every template of every specification.
func (m *Matcher) scan(entries []*registry.Entry, requestPath, method string) *Match {
	var best *Match

	for _, entry := range entries {
		if entry.Doc == nil || entry.Doc.Paths == nil {
			continue
		}

		basePath := m.effectiveBasePath(entry.Doc)
		rel := relativePath(requestPath, basePath)

		paths := entry.Doc.Paths.Map()
		templates := make([]string, 0, len(paths))
		for template := range paths {
			templates = append(templates, template)
		}
		sort.Strings(templates)

		for _, template := range templates {
			pathItem := paths[template]
			if pathItem == nil {
				continue
			}
			op := operationFor(pathItem, method)
			if op == nil {
				continue
			}
			if !matchTemplate(template, rel) {
				continue
			}

			score := ScoreBase + ScoreSegment*segmentCount(template)
			if best == nil || score > best.Score {
				best = &Match{
					Entry:     entry,
					SpecKey:   entry.Key,
					Template:  template,
					BasePath:  basePath,
					Score:     score,
					Operation: op,
				}
			}
		}
	}

	return best
}

// effectiveBasePath is the path component of the specification's first
// declared server URL, or the configured default when absent.
func (m *Matcher) effectiveBasePath(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil || doc.Servers[0].URL == "" {
		return m.defaultBasePath
	}
	u, err := url.Parse(doc.Servers[0].URL)
	if err != nil || u.Path == "" {
		return m.defaultBasePath
	}
	return normalizeBasePath(u.Path)
}

// relativePath computes the request path relative to the specification's
// base path. Paths outside the base path are used as-is.
func relativePath(requestPath, basePath string) string {
	if basePath == "" || basePath == "/" {
		return requestPath
	}
	if requestPath == basePath {
		return "/"
	}
	if strings.HasPrefix(requestPath, basePath+"/") {
		return requestPath[len(basePath):]
	}
	return requestPath
}

// matchTemplate tests a relative request path against a path template,
// treating every {param} segment as a single-segment wildcard.
func matchTemplate(template, path string) bool {
	templateParts := splitSegments(template)
	pathParts := splitSegments(path)

	if len(templateParts) != len(pathParts) {
		return false
	}
	for i, part := range templateParts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			continue
		}
		if part != pathParts[i] {
			return false
		}
	}
	return true
}

// operationFor returns the operation declared for a lowercase HTTP method.
func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "get":
		return item.Get
	case "post":
		return item.Post
	case "put":
		return item.Put
	case "patch":
		return item.Patch
	case "delete":
		return item.Delete
	case "head":
		return item.Head
	case "options":
		return item.Options
	default:
		return nil
	}
}

// stripVersionPrefix removes a leading /v{N} segment, reporting whether the
// path carried one.
func stripVersionPrefix(path string) (string, bool) {
	m := versionPrefix.FindStringSubmatch(path)
	if m == nil {
		return path, false
	}
	if m[1] == "" {
		return "/", true
	}
	return m[1], true
}

// segmentCount counts the slash-delimited segments of a template.
func segmentCount(template string) int {
	return len(splitSegments(template))
}

func splitSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// normalizeBasePath ensures a leading slash and no trailing slash.
func normalizeBasePath(basePath string) string {
	if basePath == "" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "/" {
		basePath = strings.TrimSuffix(basePath, "/")
	}
	return basePath
}
