package pgschema

import "sync"

// SchemaClient is the schema oracle: it resolves a table (schema-qualified
// or not) to its columns. internal/infer
// consumes it and performs no caching of its own; implementations are
// expected to cache, since a single inference run may call GetTable many
// times for the same table (once per FROM reference).
type SchemaClient interface {
	// GetTable resolves name in schema, or via the search_path if schema is
	// nil. Name matching is case-sensitive, matching how the SQL parser
	// already normalizes identifiers.
	GetTable(schema *string, name string) (Table, error)
}

// StaticClient is an in-memory SchemaClient backed by a fixed table list,
// used by every internal/infer unit test and by any caller that already
// has schema metadata in hand (e.g. loaded from a schema.sql dump parsed
// ahead of time).
type StaticClient struct {
	mu     sync.RWMutex
	tables map[string]Table // keyed by "schema.name", schema empty for unqualified
}

// NewStaticClient builds a StaticClient from tables, keyed by their own
// Schema/Name fields.
func NewStaticClient(tables ...Table) *StaticClient {
	c := &StaticClient{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		c.Add(t)
	}
	return c
}

// Add registers or replaces a table.
func (c *StaticClient) Add(t Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[key(t.Schema, t.Name)] = t
}

func (c *StaticClient) GetTable(schema *string, name string) (Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if schema != nil {
		if t, ok := c.tables[key(*schema, name)]; ok {
			return t, nil
		}
		return Table{}, &ErrTableNotFound{Schema: *schema, Name: name}
	}

	// No schema given: resolve via "search_path", which for the static
	// client means any registered schema, preferring an unqualified entry
	// if one was registered without a schema.
	if t, ok := c.tables[key("", name)]; ok {
		return t, nil
	}
	for k, t := range c.tables {
		if t.Name == name && k != key("", name) {
			return t, nil
		}
	}
	return Table{}, &ErrTableNotFound{Name: name}
}

func key(schema, name string) string { return schema + "." + name }
