package sharenv

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Assignment is the value served for one variable in a Rendering.
type Assignment struct {
	Name  string
	Value string
}

// Rendering is the result of one Store.Render call: every variable of a single
// snapshot with the value selected for this request, sorted by name.
type Rendering struct {
	Assignments []Assignment
	Aliases     []Alias
	Version     uint64
}

// Map returns the assignments keyed by variable name.
func (r Rendering) Map() map[string]string {
	m := make(map[string]string, len(r.Assignments))
	for _, a := range r.Assignments {
		m[a.Name] = a.Value
	}
	return m
}

// Empty reports whether the rendering carries no variables and no aliases.
func (r Rendering) Empty() bool {
	return len(r.Assignments) == 0 && len(r.Aliases) == 0
}

// ReplaceSummary describes how a Replace changed the active snapshot.
type ReplaceSummary struct {
	Version uint64
	Added   []string
	Removed []string
	Kept    []string
	// Clamped lists kept variables whose cursor was pulled back because
	// their candidate set shrank.
	Clamped []string
	// Dropped counts input variables left out for having no name or no
	// values, such as the zero Variable.
	Dropped int
}

// cursor is the rotation position of one variable. It is shared by every
// snapshot in which the variable persists.
type cursor struct {
	mu  sync.Mutex
	pos int
}

// advance selects the value to serve and moves the cursor in one step.
func (c *cursor) advance(v Variable, p Policy) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := v.Len()
	if n == 0 {
		return ""
	}
	if c.pos >= n {
		c.pos = n - 1
	}
	value, next := p.Select(v, c.pos)
	c.pos = ((next % n) + n) % n
	return value
}

// clamp pulls the cursor into [0, n) and reports whether it moved.
func (c *cursor) clamp(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos < n {
		return false
	}
	c.pos = n - 1
	return true
}

func (c *cursor) position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

type entry struct {
	variable Variable
	cursor   *cursor
}

// snapshot is never modified after it is published.
type snapshot struct {
	entries  []entry
	index    map[string]int
	aliases  []Alias
	version  uint64
	loadedAt time.Time
}

// Store holds the active snapshot of variables and their rotation cursors.
//
// Render may be called from any number of goroutines. Replace swaps the
// snapshot atomically; a Render observes either the old or the new snapshot,
// never a mix.
type Store struct {
	policy Policy
	clock  clockz.Clock

	active atomic.Pointer[snapshot]

	// mu serializes writers. Readers never take it.
	mu sync.Mutex
}

// NewStore creates an empty Store using the given rotation policy.
// A nil policy selects RoundRobin.
func NewStore(policy Policy) *Store {
	if policy == nil {
		policy = RoundRobin{}
	}
	s := &Store{
		policy: policy,
		clock:  clockz.RealClock,
	}
	s.active.Store(&snapshot{index: map[string]int{}})
	return s
}

// Clock sets the clock used to timestamp snapshots.
func (s *Store) Clock(clock clockz.Clock) *Store {
	s.clock = clock
	return s
}

// Render selects a value for every variable in the active snapshot,
// advancing each variable's cursor once.
func (s *Store) Render() Rendering {
	snap := s.active.Load()
	r := Rendering{
		Assignments: make([]Assignment, len(snap.entries)),
		Aliases:     append([]Alias(nil), snap.aliases...),
		Version:     snap.version,
	}
	for i, e := range snap.entries {
		r.Assignments[i] = Assignment{
			Name:  e.variable.Name(),
			Value: e.cursor.advance(e.variable, s.policy),
		}
	}
	return r
}

// Replace installs vars and aliases as the active snapshot.
//
// Cursors carry over for names present before and after, clamped into the
// new candidate range. New names start at 0 and cursors of removed names are
// dropped. When vars contains a name more than once the last one wins.
// Variables without a name or without values are left out.
func (s *Store) Replace(ctx context.Context, vars []Variable, aliases []Alias) ReplaceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.active.Load()

	dropped := 0
	byName := make(map[string]Variable, len(vars))
	for _, v := range vars {
		if v.Name() == "" || v.Len() == 0 {
			dropped++
			continue
		}
		byName[v.Name()] = v
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	next := &snapshot{
		entries:  make([]entry, len(names)),
		index:    make(map[string]int, len(names)),
		aliases:  append([]Alias(nil), aliases...),
		version:  old.version + 1,
		loadedAt: s.clock.Now(),
	}
	summary := ReplaceSummary{Version: next.version, Dropped: dropped}

	for i, name := range names {
		v := byName[name]
		c := &cursor{}
		if j, ok := old.index[name]; ok {
			c = old.entries[j].cursor
			if c.clamp(v.Len()) {
				summary.Clamped = append(summary.Clamped, name)
			}
			summary.Kept = append(summary.Kept, name)
		} else {
			summary.Added = append(summary.Added, name)
		}
		next.entries[i] = entry{variable: v, cursor: c}
		next.index[name] = i
	}
	for _, e := range old.entries {
		if _, ok := next.index[e.variable.Name()]; !ok {
			summary.Removed = append(summary.Removed, e.variable.Name())
		}
	}

	s.active.Store(next)

	capitan.Emit(ctx, StoreReplaced,
		KeyVersion.Field(int(next.version)),
		KeyVariables.Field(len(next.entries)),
		KeyAdded.Field(len(summary.Added)),
		KeyRemoved.Field(len(summary.Removed)),
		KeyClamped.Field(len(summary.Clamped)),
	)

	return summary
}

// Version returns the version of the active snapshot. It is 0 until the first
// Replace and increases by one with every Replace.
func (s *Store) Version() uint64 {
	return s.active.Load().version
}

// LoadedAt returns when the active snapshot was installed.
func (s *Store) LoadedAt() time.Time {
	return s.active.Load().loadedAt
}

// Len returns the number of variables in the active snapshot.
func (s *Store) Len() int {
	return len(s.active.Load().entries)
}

// Names returns the sorted variable names of the active snapshot.
func (s *Store) Names() []string {
	snap := s.active.Load()
	names := make([]string, len(snap.entries))
	for i, e := range snap.entries {
		names[i] = e.variable.Name()
	}
	return names
}

// Lookup returns the variable with the given name and its current cursor
// without advancing it.
func (s *Store) Lookup(name string) (Variable, int, bool) {
	snap := s.active.Load()
	i, ok := snap.index[name]
	if !ok {
		return Variable{}, 0, false
	}
	e := snap.entries[i]
	return e.variable, e.cursor.position(), true
}
