package entry

import (
	"errors"
	"sort"
)

// Table maps entry names to entries. Putting an existing name replaces
// and disposes the previous entry.
type Table struct {
	entries map[string]*Entry
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Put adds or replaces an entry
func (t *Table) Put(e *Entry) error {
	old, ok := t.entries[e.name]
	t.entries[e.name] = e
	if ok && old != e {
		return old.Dispose()
	}
	return nil
}

// Get finds an entry by name
func (t *Table) Get(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Remove deletes and disposes an entry. It reports whether the name existed.
func (t *Table) Remove(name string) (bool, error) {
	e, ok := t.entries[name]
	if !ok {
		return false, nil
	}
	delete(t.entries, name)
	return true, e.Dispose()
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Names returns all entry names, sorted
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries sorted by name
func (t *Table) Entries() []*Entry {
	names := t.Names()
	entries := make([]*Entry, len(names))
	for i, name := range names {
		entries[i] = t.entries[name]
	}
	return entries
}

// Dispose releases every entry and empties the table
func (t *Table) Dispose() error {
	var errs []error
	for name, e := range t.entries {
		if err := e.Dispose(); err != nil {
			errs = append(errs, err)
		}
		delete(t.entries, name)
	}
	return errors.Join(errs...)
}
