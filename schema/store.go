package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// EnvCommonRoot overrides the computed base path
	EnvCommonRoot = "OCN_COMMON_ROOT"

	// BaseURL is the synthetic URL root under which documents are exposed to
	// the compiler, so $ref between schema files resolves through the store.
	BaseURL = "https://schemas.ocn.network/"

	draft2020URL = "https://json-schema.org/draft/2020-12/schema"
)

// draft2020Meta is the compiled 2020-12 meta-schema every document must satisfy
var draft2020Meta = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	return c.Compile(draft2020URL)
})

// Document is a parsed, meta-validated schema. It must not be mutated.
type Document struct {
	ID       Identifier
	Location string
	Raw      json.RawMessage
	Tree     interface{}
}

// StoreOption configures a Store
type StoreOption func(*storeConfig)

type storeConfig struct {
	basePath string
	fsys     fs.FS
	logger   *slog.Logger
	metrics  *Metrics
}

// WithBasePath sets the directory containing common/
func WithBasePath(path string) StoreOption {
	return func(c *storeConfig) {
		c.basePath = path
	}
}

// WithFS reads schemas from fsys instead of the base path on disk
func WithFS(fsys fs.FS) StoreOption {
	return func(c *storeConfig) {
		c.fsys = fsys
	}
}

// WithStoreLogger sets the logger
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithStoreMetrics records loads and cache lookups on m
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(c *storeConfig) {
		c.metrics = m
	}
}

// Store loads schema documents and caches them for its own lifetime.
// Failed loads are not cached; the next Get retries the read.
type Store struct {
	fsys     fs.FS
	basePath string
	logger   *slog.Logger
	metrics  *Metrics

	mu    sync.RWMutex
	docs  map[Identifier]*Document
	group singleflight.Group
}

// NewStore creates a schema store. Without options it reads from
// DefaultBasePath on disk.
func NewStore(opts ...StoreOption) *Store {
	cfg := &storeConfig{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.fsys == nil {
		if cfg.basePath == "" {
			cfg.basePath = DefaultBasePath()
		}
		cfg.fsys = os.DirFS(cfg.basePath)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Store{
		fsys:     cfg.fsys,
		basePath: cfg.basePath,
		logger:   cfg.logger.With("component", "schema-store"),
		metrics:  cfg.metrics,
		docs:     make(map[Identifier]*Document),
	}
}

// BasePath returns the on-disk base path, or "" when reading from a custom fs.FS
func (s *Store) BasePath() string {
	return s.basePath
}

// Get returns the document for id, loading it on first use
func (s *Store) Get(id Identifier) (*Document, error) {
	loc, err := id.Location()
	if err != nil {
		return nil, &SchemaError{Op: "resolve", ID: id, Err: err}
	}

	if doc, ok := s.cached(id); ok {
		s.metrics.recordLookup("schema", true)
		return doc, nil
	}
	s.metrics.recordLookup("schema", false)

	v, err, _ := s.group.Do(id.String(), func() (interface{}, error) {
		// A concurrent caller may have finished the load already.
		if doc, ok := s.cached(id); ok {
			return doc, nil
		}

		doc, err := s.load(id, loc)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.docs[id] = doc
		s.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (s *Store) cached(id Identifier) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *Store) load(id Identifier, loc string) (*Document, error) {
	s.logger.Debug("loading schema", "schema", id.String(), "location", loc)
	s.metrics.recordLoad(id.Category)

	raw, err := fs.ReadFile(s.fsys, loc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.metrics.recordLoadFailure(id.Category, "not_found")
			s.logger.Warn("schema not found", "schema", id.String(), "location", loc)
			return nil, &SchemaError{Op: "load", ID: id, Location: loc, Err: ErrSchemaNotFound}
		}
		s.metrics.recordLoadFailure(id.Category, "read")
		return nil, &SchemaError{Op: "load", ID: id, Location: loc, Err: err}
	}

	tree, err := decodeJSON(bytes.NewReader(raw))
	if err != nil {
		s.metrics.recordLoadFailure(id.Category, "parse")
		return nil, &SchemaError{Op: "load", ID: id, Location: loc, Err: fmt.Errorf("%w: %v", ErrInvalidSchema, err)}
	}

	meta, err := draft2020Meta()
	if err != nil {
		return nil, &SchemaError{Op: "load", ID: id, Location: loc, Err: fmt.Errorf("compile meta-schema: %w", err)}
	}
	if err := meta.Validate(tree); err != nil {
		s.metrics.recordLoadFailure(id.Category, "meta_schema")
		s.logger.Warn("schema failed meta-schema check", "schema", id.String(), "error", err)
		return nil, &SchemaError{Op: "load", ID: id, Location: loc, Err: fmt.Errorf("%w: %v", ErrInvalidSchema, err)}
	}

	return &Document{
		ID:       id,
		Location: loc,
		Raw:      json.RawMessage(raw),
		Tree:     tree,
	}, nil
}

// ListAvailable returns the sorted names of schemas present for category c.
// A missing category directory yields an empty list.
func (s *Store) ListAvailable(c Category) ([]string, error) {
	dir, err := c.Dir()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s schemas: %w", c, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), schemaSuffix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// URL returns the synthetic URL the compiler knows id by
func (s *Store) URL(id Identifier) (string, error) {
	loc, err := id.Location()
	if err != nil {
		return "", err
	}
	return BaseURL + loc, nil
}

// open serves compiler resource requests. URLs under BaseURL are answered
// from the store; anything else goes to the library's default loader.
func (s *Store) open(url string) (io.ReadCloser, error) {
	loc, ok := strings.CutPrefix(url, BaseURL)
	if !ok {
		return jsonschema.LoadURL(url)
	}

	id, ok := identifierForLocation(loc)
	if !ok {
		return nil, fmt.Errorf("%w: no schema at %s", ErrSchemaNotFound, url)
	}

	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(doc.Raw)), nil
}

// DefaultBasePath returns $OCN_COMMON_ROOT when set, otherwise the nearest
// ancestor of the working directory that contains a common/ directory,
// otherwise the working directory itself.
func DefaultBasePath() string {
	if root := os.Getenv(EnvCommonRoot); root != "" {
		return root
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for dir := wd; ; {
		if info, err := os.Stat(filepath.Join(dir, "common")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd
}
