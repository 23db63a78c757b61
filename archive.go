package memzip

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/meigma/memzip/internal/compressed"
	"github.com/meigma/memzip/internal/pathutil"
	"github.com/meigma/memzip/internal/ziptype"
)

// Archive is an ordered set of entries keyed by name.
//
// Entries keep insertion order; replacing an entry keeps its position.
// An Archive is not safe for concurrent mutation.
type Archive struct {
	// Comment is the archive comment written by Generate unless
	// GenerateWithComment overrides it.
	Comment string

	entries []*Entry
	index   map[string]int
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{index: make(map[string]int)}
}

// Add stores content under name, replacing any entry with that name. Names
// ending in "/" and entries added WithDir are directories; their content is
// discarded and their name gains a trailing slash.
func (a *Archive) Add(name string, content []byte, opts ...EntryOption) (*Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ziptype.ErrInvalidName)
	}
	cfg := entryConfig{entry: Entry{Name: name}}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &cfg.entry
	if pathutil.IsDir(e.Name) {
		e.Dir = true
	}
	if e.Dir {
		e.Name = pathutil.DirName(e.Name)
		content = nil
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if !e.Dir {
		e.obj = compressed.FromContent(content, e.Name)
	}

	if cfg.createFolders {
		a.addParents(e.Name, e.Date)
	}
	a.put(e)
	return e, nil
}

// AddDir adds a directory entry. It is Add with WithDir.
func (a *Archive) AddDir(name string, opts ...EntryOption) (*Entry, error) {
	return a.Add(name, nil, append(opts, WithDir())...)
}

// Entry returns the entry called name.
func (a *Archive) Entry(name string) (*Entry, bool) {
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.entries[i], true
}

// Entries returns the entries in order.
func (a *Archive) Entries() []*Entry {
	return slices.Clone(a.entries)
}

// All iterates over the entries in order.
func (a *Archive) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Remove deletes the entry called name and reports whether it existed.
func (a *Archive) Remove(name string) bool {
	i, ok := a.index[name]
	if !ok {
		return false
	}
	a.entries = slices.Delete(a.entries, i, i+1)
	delete(a.index, name)
	for j := i; j < len(a.entries); j++ {
		a.index[a.entries[j].Name] = j
	}
	return true
}

// put inserts e, or replaces the entry with the same name in place.
func (a *Archive) put(e *Entry) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[e.Name]; ok {
		a.entries[i] = e
		return
	}
	a.index[e.Name] = len(a.entries)
	a.entries = append(a.entries, e)
}

// addParents inserts the missing ancestor directories of name, outermost
// first. They carry date and no permissions.
func (a *Archive) addParents(name string, date time.Time) {
	for _, dir := range pathutil.Parents(name) {
		if _, ok := a.index[dir]; ok {
			continue
		}
		a.put(&Entry{Name: dir, Dir: true, Date: date})
	}
}
