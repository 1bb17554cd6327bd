package codes

import (
	"sort"
	"strings"

	"github.com/rezonia/facturae-processor/internal/model"
)

const fallbackPrefix = "code: "

// Resolver maps raw codes to display text. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	tables map[TableID]Table
}

// NewResolver creates a resolver over the given tables. With no arguments
// the bundled tables are used.
func NewResolver(tables ...Table) *Resolver {
	if len(tables) == 0 {
		tables = DefaultTables()
	}
	r := &Resolver{tables: make(map[TableID]Table, len(tables))}
	for _, t := range tables {
		r.tables[t.ID] = copyTable(t)
	}
	return r
}

// WithOverrides returns a new resolver with entries merged over the
// receiver's tables. Unknown table ids create new tables.
func (r *Resolver) WithOverrides(overrides map[TableID]map[string]string) *Resolver {
	out := &Resolver{tables: make(map[TableID]Table, len(r.tables))}
	for id, t := range r.tables {
		out.tables[id] = copyTable(t)
	}
	for id, entries := range overrides {
		t, ok := out.tables[id]
		if !ok {
			t = Table{ID: id, Version: "custom", Entries: map[string]string{}}
		}
		for code, text := range entries {
			t.Entries[code] = text
		}
		out.tables[id] = t
	}
	return out
}

// Resolve looks up raw in the given table. Unknown codes resolve to
// "code: <raw>" and never fail.
func (r *Resolver) Resolve(id TableID, raw string) model.Coded {
	code := strings.TrimSpace(raw)
	if t, ok := r.tables[id]; ok {
		if text, ok := t.Entries[code]; ok {
			return model.Coded{Code: code, Text: text, Known: true}
		}
	}
	return model.Coded{Code: code, Text: Fallback(code), Known: false}
}

// Lookup returns the display text and whether the code is known
func (r *Resolver) Lookup(id TableID, raw string) (string, bool) {
	c := r.Resolve(id, raw)
	return c.Text, c.Known
}

// Table returns a copy of a table by id
func (r *Resolver) Table(id TableID) (Table, bool) {
	t, ok := r.tables[id]
	if !ok {
		return Table{}, false
	}
	return copyTable(t), true
}

// Tables returns copies of all tables sorted by id
func (r *Resolver) Tables() []Table {
	out := make([]Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, copyTable(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fallback is the display text used for codes missing from a table
func Fallback(raw string) string {
	return fallbackPrefix + raw
}

// RawFromFallback recovers the raw code from a fallback text
func RawFromFallback(text string) (string, bool) {
	return strings.CutPrefix(text, fallbackPrefix)
}

// SortedCodes returns a table's codes in ascending order
func SortedCodes(t Table) []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyTable(t Table) Table {
	entries := make(map[string]string, len(t.Entries))
	for k, v := range t.Entries {
		entries[k] = v
	}
	return Table{ID: t.ID, Version: t.Version, Entries: entries}
}
