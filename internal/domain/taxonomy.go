package domain

import "strings"

// PathSeparator joins the hierarchy segments of a taxonomy path.
const PathSeparator = " > "

// TaxonomyEntry is a single node of the category tree.
type TaxonomyEntry struct {
	Code string `json:"code"`
	Path string `json:"path"` // full hierarchy, e.g. "Home & Garden > Linens > Tablecloths"
}

// Segments splits the path into its hierarchy levels.
func (e TaxonomyEntry) Segments() []string {
	if e.Path == "" {
		return nil
	}
	return strings.Split(e.Path, PathSeparator)
}

// Depth is the number of hierarchy levels in the path.
func (e TaxonomyEntry) Depth() int {
	return len(e.Segments())
}

// Root returns the top-level segment of the path.
func (e TaxonomyEntry) Root() string {
	segs := e.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// ParentPath returns the path one level up, or "" for a root entry.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, PathSeparator)
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Catalog is an immutable in-memory index of the taxonomy, keyed by code
// and by case-insensitive path. Built once at startup and shared.
type Catalog struct {
	entries []TaxonomyEntry
	byCode  map[string]TaxonomyEntry
	byPath  map[string]TaxonomyEntry
}

// NewCatalog builds a catalog from taxonomy entries. Later duplicates of a
// code or path win, matching a reimport of the same file.
func NewCatalog(entries []TaxonomyEntry) *Catalog {
	c := &Catalog{
		entries: make([]TaxonomyEntry, 0, len(entries)),
		byCode:  make(map[string]TaxonomyEntry, len(entries)),
		byPath:  make(map[string]TaxonomyEntry, len(entries)),
	}
	for _, e := range entries {
		if e.Code == "" || e.Path == "" {
			continue
		}
		c.entries = append(c.entries, e)
		c.byCode[e.Code] = e
		c.byPath[pathKey(e.Path)] = e
	}
	return c
}

// ByCode looks up an entry by its category code.
func (c *Catalog) ByCode(code string) (TaxonomyEntry, bool) {
	e, ok := c.byCode[code]
	return e, ok
}

// ByPath looks up an entry by its full path, case-insensitively.
func (c *Catalog) ByPath(path string) (TaxonomyEntry, bool) {
	e, ok := c.byPath[pathKey(path)]
	return e, ok
}

// Parent returns the entry one level above the given entry, if the parent
// path exists in the catalog.
func (c *Catalog) Parent(e TaxonomyEntry) (TaxonomyEntry, bool) {
	parent := ParentPath(e.Path)
	if parent == "" {
		return TaxonomyEntry{}, false
	}
	return c.ByPath(parent)
}

// Entries returns all catalog entries. Callers must not mutate the slice.
func (c *Catalog) Entries() []TaxonomyEntry {
	return c.entries
}

// Len is the number of entries in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

func pathKey(path string) string {
	return strings.ToLower(strings.TrimSpace(path))
}
