package registry

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/specnock/specnock/internal/models"
)

// specExtensions are the file extensions considered when enumerating a
// directory source.
var specExtensions = map[string]bool{
	".yml":  true,
	".yaml": true,
	".json": true,
}

// Entry is one loaded specification, keyed by its source-relative path
// with the extension stripped.
type Entry struct {
	Key    string
	Source string // declaring spec source (directory or file path)
	Doc    *openapi3.T
}

// Store holds, per endpoint host, the ordered list of parsed OpenAPI
// documents. The store exclusively owns the parsed documents; callers get
// read-only references.
type Store struct {
	mu     sync.RWMutex
	logger *log.Logger

	specs map[string][]*Entry // endpoint host -> entries in load order
	order []string            // hosts in load order

	headerSpecs map[string]map[string]*Entry // header name -> header value -> entry
}

// NewStore creates an empty specification store.
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		logger:      logger,
		specs:       make(map[string][]*Entry),
		headerSpecs: make(map[string]map[string]*Entry),
	}
}

// Load populates the store for one endpoint. Each declared source is walked
// in order: directories recursively, files directly. A malformed, unreadable
// or non-OpenAPI file is skipped with a warning and never aborts the rest of
// the batch; the same goes for a missing source path.
func (s *Store) Load(endpoint models.Endpoint) error {
	host, err := endpoint.Host()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.specs[host]; !seen {
		s.order = append(s.order, host)
	}

	for _, source := range endpoint.Specs {
		info, err := os.Stat(source)
		if err != nil {
			s.logger.Printf("WARN: spec source %s skipped: %v", source, err)
			continue
		}

		if info.IsDir() {
			s.loadDir(host, source)
			continue
		}
		s.loadFile(host, source, keyForFile(filepath.Base(source)))
	}
	return nil
}

// LoadHeaderSpec registers a header-driven specification: when a request
// carries the given header name/value, the mapped spec is consulted before
// the endpoint's general set.
func (s *Store) LoadHeaderSpec(header, value, source string) {
	doc, err := parseSpecFile(source)
	if err != nil {
		s.logger.Printf("WARN: header spec %s skipped: %v", source, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.headerSpecs[header] == nil {
		s.headerSpecs[header] = make(map[string]*Entry)
	}
	s.headerSpecs[header][value] = &Entry{
		Key:    keyForFile(filepath.Base(source)),
		Source: source,
		Doc:    doc,
	}
}

// loadDir enumerates a directory source recursively in lexical order,
// loading every file with a recognized spec extension. Nested files keep
// their relative sub-path as part of the key.
func (s *Store) loadDir(host, dir string) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if specExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		s.logger.Printf("WARN: spec source %s skipped: %v", dir, err)
		return
	}

	// WalkDir is lexical already; sorting keeps the order contract explicit.
	sort.Strings(files)

	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		s.loadFile(host, file, keyForFile(rel))
	}
}

// loadFile parses one spec file and appends it to the endpoint's entries.
// Caller holds the write lock.
func (s *Store) loadFile(host, path, key string) {
	doc, err := parseSpecFile(path)
	if err != nil {
		s.logger.Printf("WARN: spec file %s skipped: %v", path, err)
		return
	}

	s.specs[host] = append(s.specs[host], &Entry{
		Key:    key,
		Source: path,
		Doc:    doc,
	})
}

// parseSpecFile loads and validates a single OpenAPI document. A document
// without a recognizable OpenAPI version field is rejected.
func parseSpecFile(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	if doc.OpenAPI == "" {
		return nil, fmt.Errorf("missing OpenAPI version field")
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

// Specs returns the entries loaded for an endpoint host, in load order.
func (s *Store) Specs(host string) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.specs[host]
	result := make([]*Entry, len(entries))
	copy(result, entries)
	return result
}

// HeaderSpec returns the spec mapped to a header name/value pair, if any.
func (s *Store) HeaderSpec(header, value string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.headerSpecs[header]
	if !ok {
		return nil, false
	}
	entry, ok := values[value]
	return entry, ok
}

// HeaderNames returns the header names with mapped specs, sorted.
func (s *Store) HeaderNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.headerSpecs))
	for name := range s.headerSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of loaded specifications, header-driven
// entries included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entries := range s.specs {
		n += len(entries)
	}
	for _, values := range s.headerSpecs {
		n += len(values)
	}
	return n
}

// Hosts returns the endpoint hosts in load order.
func (s *Store) Hosts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hosts := make([]string, len(s.order))
	copy(hosts, s.order)
	return hosts
}

// Overview returns a snapshot describing every loaded specification, in
// endpoint load order.
func (s *Store) Overview() []models.SpecInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.SpecInfo
	for _, host := range s.order {
		for _, entry := range s.specs[host] {
			result = append(result, specInfo(host, entry))
		}
	}
	for _, name := range sortedKeys(s.headerSpecs) {
		values := s.headerSpecs[name]
		for _, value := range sortedKeys(values) {
			result = append(result, specInfo("", values[value]))
		}
	}
	return result
}

func specInfo(host string, entry *Entry) models.SpecInfo {
	info := models.SpecInfo{
		Endpoint: host,
		Key:      entry.Key,
		Source:   entry.Source,
	}
	if entry.Doc != nil && entry.Doc.Info != nil {
		info.Title = entry.Doc.Info.Title
		info.Version = entry.Doc.Info.Version
	}
	return info
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset discards all loaded specifications.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = make(map[string][]*Entry)
	s.headerSpecs = make(map[string]map[string]*Entry)
	s.order = nil
}

// keyForFile derives a specification key from a source-relative file path:
// forward slashes, extension stripped.
func keyForFile(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}
