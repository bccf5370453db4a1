package meta

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Wildcard selects every registered type.
const Wildcard = "all"

var (
	ErrDuplicateType  = errors.New("type already registered")
	ErrUnknownType    = errors.New("unknown meta type")
	ErrRegistrySealed = errors.New("registry is sealed")
)

// Registry holds the registered type schemas and the currently published
// snapshot of parsed records.
//
// Schemas must all be registered before the first Publish; afterwards the
// registry is sealed. Records are only ever replaced wholesale by publishing
// a new Snapshot, so readers see either the old or the new generation.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*TypeSchema
	order   []string
	sealed  atomic.Bool

	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
}

// NewRegistry returns an empty registry with an empty published snapshot.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]*TypeSchema)}
	r.current.Store(&Snapshot{records: map[string][]*Record{}})
	return r
}

// Register adds a schema. It fails on duplicate names, invalid schemas, or
// once the registry has been sealed by a publish.
func (r *Registry) Register(s *TypeSchema) error {
	if err := s.compile(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	if _, ok := r.schemas[s.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateType, s.Name)
	}
	r.schemas[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// MustRegister is Register for startup tables; it panics on error.
func (r *Registry) MustRegister(schemas ...*TypeSchema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(fmt.Sprintf("meta: register %v: %v", schemaName(s), err))
		}
	}
}

func schemaName(s *TypeSchema) string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// Schema looks up a registered type by lowercase name.
func (r *Registry) Schema(name string) (*TypeSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Types returns the registered type names in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// NewBuilder starts the next generation of records.
func (r *Registry) NewBuilder() *Builder {
	return &Builder{registry: r, records: make(map[string][]*Record)}
}

// Snapshot returns the currently published generation.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// AllOf returns every record of typ, or of every type for Wildcard.
func (r *Registry) AllOf(typ string) ([]*Record, error) {
	if err := r.checkType(typ); err != nil {
		return nil, err
	}
	return r.Snapshot().AllOf(typ)
}

// Counts returns per-type record counts of the published generation, for
// every registered type.
func (r *Registry) Counts() []TypeCount {
	snap := r.Snapshot()
	types := r.Types()
	out := make([]TypeCount, 0, len(types))
	for _, name := range types {
		out = append(out, TypeCount{Type: name, Count: len(snap.records[name])})
	}
	return out
}

func (r *Registry) checkType(typ string) error {
	if typ == Wildcard {
		return nil
	}
	if _, ok := r.Schema(typ); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return nil
}

// Builder accumulates records off to the side until Publish.
type Builder struct {
	registry *Registry
	records  map[string][]*Record
}

// Add appends rec to its type's list. Records of unregistered types are
// rejected.
func (b *Builder) Add(rec *Record) error {
	name := rec.Type()
	if s, ok := b.registry.Schema(name); !ok || s != rec.schema {
		return fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	b.records[name] = append(b.records[name], rec)
	return nil
}

// Publish atomically swaps the accumulated records in as the live
// generation and seals the registry against further registration.
func (b *Builder) Publish() *Snapshot {
	r := b.registry
	// Sealed under mu so a concurrent Register either lands in this
	// snapshot's type order or fails.
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
	snap := &Snapshot{
		records:    b.records,
		order:      r.Types(),
		generation: r.generation.Add(1),
		loadedAt:   time.Now(),
	}
	b.records = nil
	r.current.Store(snap)
	return snap
}

// TypeCount is the number of records of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Snapshot is one immutable generation of parsed records.
type Snapshot struct {
	records    map[string][]*Record
	order      []string
	generation uint64
	loadedAt   time.Time
}

// Generation is 0 before the first publish and increases by one per publish.
func (s *Snapshot) Generation() uint64 { return s.generation }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// AllOf returns the records of typ, or of every type for Wildcard, in
// registration and parse order.
func (s *Snapshot) AllOf(typ string) ([]*Record, error) {
	if typ == Wildcard {
		var out []*Record
		for _, name := range s.order {
			out = append(out, s.records[name]...)
		}
		return out, nil
	}
	if s.order != nil && !slices.Contains(s.order, typ) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return slices.Clone(s.records[typ]), nil
}

// Counts returns a count for every registered type, including empty ones.
func (s *Snapshot) Counts() []TypeCount {
	out := make([]TypeCount, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, TypeCount{Type: name, Count: len(s.records[name])})
	}
	return out
}

// Total is the number of records across all types.
func (s *Snapshot) Total() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}
