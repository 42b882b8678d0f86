package domain

// CatalogEntry is one controlled song in the publisher catalog.
// ControlledPercentage is carried through for reporting; matching never
// consults it.
type CatalogEntry struct {
	ID                   string
	Title                string
	Writers              string
	ControlledPercentage float64
}

// Catalog is the read-only song catalog loaded once per run, indexed by
// normalized title and by catalog id.
type Catalog struct {
	entries []CatalogEntry
	byKey   map[string]int
	byID    map[string]int
}

// NewCatalog builds the lookup indexes over the given entries. When two
// titles normalize to the same key, the first entry keeps the index slot.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		entries: entries,
		byKey:   make(map[string]int, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		key := Normalize(e.Title)
		if _, exists := c.byKey[key]; !exists {
			c.byKey[key] = i
		}
		if _, exists := c.byID[e.ID]; !exists {
			c.byID[e.ID] = i
		}
	}
	return c
}

// Entries returns the catalog rows in load order.
func (c *Catalog) Entries() []CatalogEntry {
	return c.entries
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// ByNormalizedTitle looks up an entry by an already-normalized title key.
func (c *Catalog) ByNormalizedTitle(key string) (CatalogEntry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// ByID looks up an entry by catalog id.
func (c *Catalog) ByID(id string) (CatalogEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// HasID reports whether the catalog contains the given id.
func (c *Catalog) HasID(id string) bool {
	_, ok := c.byID[id]
	return ok
}
