package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/conv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the immutable set of content items shared by all sessions.
type Catalog struct {
	items []core.ContentItem
	byID  map[string]int
}

type document struct {
	Items []core.ContentItem `yaml:"items" json:"items"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// Load reads a YAML or JSON catalog file. An empty path yields the
// embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog. JSON input is accepted as YAML.
func Parse(r io.Reader) (*Catalog, error) {
	var doc document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return New(doc.Items)
}

// New validates items and builds a catalog from them.
func New(items []core.ContentItem) (*Catalog, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}

	c := &Catalog{
		items: make([]core.ContentItem, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for i, item := range items {
		summary, err := conv.HTMLToText(item.Summary)
		if err != nil {
			return nil, fmt.Errorf("item %q: summary: %w", item.ID, err)
		}
		item.Summary = summary
		c.items[i] = item
		c.byID[item.ID] = i
	}
	return c, nil
}

// Validate reports every problem found in items, joined.
func Validate(items []core.ContentItem) error {
	var errs []error
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		where := fmt.Sprintf("item %d", i)
		if item.ID != "" {
			where = fmt.Sprintf("item %q", item.ID)
		}

		if strings.TrimSpace(item.ID) == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		} else if _, dup := seen[item.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		seen[item.ID] = struct{}{}

		if !item.Category.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown category %q", where, item.Category))
		}
		if strings.TrimSpace(item.Title) == "" {
			errs = append(errs, fmt.Errorf("%s: title is required", where))
		}
		if err := item.Trigger.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: trigger %w", where, err))
		}
	}
	return errors.Join(errs...)
}

// Items returns a copy of every item in catalog order.
func (c *Catalog) Items() []core.ContentItem {
	return slices.Clone(c.items)
}

// Each iterates items without copying the slice.
func (c *Catalog) Each(fn func(core.ContentItem)) {
	for _, item := range c.items {
		fn(item)
	}
}

func (c *Catalog) Get(id string) (core.ContentItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.ContentItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// CountByCategory is used for startup logging.
func (c *Catalog) CountByCategory() map[core.Category]int {
	out := make(map[core.Category]int)
	for _, item := range c.items {
		out[item.Category]++
	}
	return out
}
