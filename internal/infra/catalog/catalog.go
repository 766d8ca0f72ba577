// Package catalog loads the source catalog from YAML and keeps it current
// while the file changes on disk.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"lesnouvelles-feed/internal/domain/entity"
)

// ErrEmpty indicates a catalog without any source.
var ErrEmpty = errors.New("catalog has no sources")

type fileSource struct {
	Title     string           `yaml:"title"`
	RSS       []entity.FeedRef `yaml:"rss"`
	Frontpage []string         `yaml:"frontpage"`
}

type file struct {
	Sources map[string]fileSource `yaml:"sources"`
}

// Parse decodes and validates a catalog document. Sources are returned
// sorted by key.
func Parse(data []byte) ([]entity.Source, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, ErrEmpty
	}

	keys := make([]string, 0, len(f.Sources))
	for k := range f.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sources := make([]entity.Source, 0, len(keys))
	var errs []error
	for _, k := range keys {
		fs := f.Sources[k]
		src := entity.Source{Key: k, Title: fs.Title, Feeds: fs.RSS, Frontpage: fs.Frontpage}
		if err := src.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", k, err))
			continue
		}
		sources = append(sources, src)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sources, nil
}

// Load reads and parses the catalog at path.
func Load(path string) ([]entity.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Catalog holds the current sources. It is safe for concurrent use; a
// reload swaps the whole list at once.
type Catalog struct {
	path    string
	sources atomic.Pointer[[]entity.Source]
}

// New loads path and returns a Catalog serving its sources.
func New(path string) (*Catalog, error) {
	sources, err := Load(path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{path: path}
	c.sources.Store(&sources)
	return c, nil
}

// Static returns a Catalog that never reloads.
func Static(sources []entity.Source) *Catalog {
	c := &Catalog{}
	c.sources.Store(&sources)
	return c
}

// Sources returns the current source list. Callers must not modify it.
func (c *Catalog) Sources() []entity.Source {
	return *c.sources.Load()
}

// Reload reads the file again. On error the previous sources stay active.
func (c *Catalog) Reload() error {
	sources, err := Load(c.path)
	if err != nil {
		return err
	}
	c.sources.Store(&sources)
	return nil
}
