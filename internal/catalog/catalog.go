// Package catalog holds the game library fetched for one account and the
// ordered, filterable views the presentation layer renders from it.
package catalog

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Item is a single fetchable game. Items are immutable once loaded.
type Item struct {
	ID               int64
	Name             string
	ShortDescription string
	IconRef          string
}

// Catalog is the full list of items from the last successful load,
// sorted by name using the collation of its language.
type Catalog struct {
	tag   language.Tag
	items []Item
}

// New creates an empty catalog that orders names according to tag.
func New(tag language.Tag) *Catalog {
	return &Catalog{tag: tag}
}

// Load replaces the catalog wholesale and sorts it by name.
func (c *Catalog) Load(items []Item) {
	sorted := make([]Item, len(items))
	copy(sorted, items)

	// Collators keep internal buffers, so each load gets its own.
	col := collate.New(c.tag)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		if n := col.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	c.items = sorted
}

// Reset drops every item.
func (c *Catalog) Reset() {
	c.items = nil
}

// Len returns the number of loaded items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Lookup finds an item by ID.
func (c *Catalog) Lookup(id int64) (Item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Filter yields the items whose name contains query, ignoring case.
// An empty query yields the whole catalog in order. The sequence reads the
// catalog each time it is ranged over, so it can be restarted.
func (c *Catalog) Filter(query string) iter.Seq[Item] {
	needle := fold(query)
	return func(yield func(Item) bool) {
		for _, it := range c.items {
			if needle != "" && !strings.Contains(fold(it.Name), needle) {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// Match yields the items whose name matches a glob pattern such as
// "half-life*" or "*[Ss]im*". Matching ignores case, and "/" in a name is
// an ordinary character that wildcards match.
func (c *Catalog) Match(pattern string) (iter.Seq[Item], error) {
	glob := globSubject(pattern)
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	return func(yield func(Item) bool) {
		for _, it := range c.items {
			ok, err := doublestar.Match(glob, globSubject(it.Name))
			if err != nil || !ok {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}, nil
}

func fold(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}

// nameSep stands in for "/" so doublestar does not treat names as paths.
const nameSep = "\x1f"

func globSubject(s string) string {
	return strings.ReplaceAll(fold(s), "/", nameSep)
}
