package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/tracegrid/internal/module"
)

// entry is one published service.
type entry struct {
	impl     any
	provider string
}

type entries = map[module.CapabilityID]entry

// slot holds one module's services.
type slot struct {
	// mu serializes writers; readers go through the atomic pointer.
	mu      sync.Mutex
	current atomic.Pointer[entries]
}

func newSlot() *slot {
	s := &slot{}
	empty := make(entries)
	s.current.Store(&empty)
	return s
}

// Registry holds the slots of every module taking part in one boot.
type Registry struct {
	// slots is filled by Declare before any provider runs and is read-only
	// afterwards.
	slots  map[string]*slot
	order  []string
	sealed atomic.Bool
}

// New creates an empty registry. Each boot gets its own.
func New() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Declare creates the slot for a module. It must be called for every module
// before the first provider phase runs. Declaring twice is a no-op.
func (r *Registry) Declare(moduleName string) {
	if r.sealed.Load() {
		panic(fmt.Sprintf("registry: declare %q after seal", moduleName))
	}
	if _, ok := r.slots[moduleName]; ok {
		return
	}
	r.slots[moduleName] = newSlot()
	r.order = append(r.order, moduleName)
}

// Modules returns the declared module names in declaration order.
func (r *Registry) Modules() []string {
	return slices.Clone(r.order)
}

// Register publishes impl under id in the module's slot, on behalf of the
// named provider. The first registration of a capability wins; a second one
// fails with *DuplicateCapabilityError. Registering into a sealed registry
// panics.
func (r *Registry) Register(moduleName, provider string, id module.CapabilityID, impl any) error {
	if r.sealed.Load() {
		panic(fmt.Sprintf("registry: provider %q registered %s into module %q after boot completed", provider, id, moduleName))
	}
	s, ok := r.slots[moduleName]
	if !ok {
		return fmt.Errorf("registry: module %q was never declared", moduleName)
	}
	if !id.Accepts(impl) {
		return &IncompatibleServiceError{Module: moduleName, Capability: id, Impl: fmt.Sprintf("%T", impl)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.current.Load()
	if existing, dup := current[id]; dup {
		return &DuplicateCapabilityError{
			Module:     moduleName,
			Capability: id,
			First:      existing.provider,
			Second:     provider,
		}
	}

	next := make(entries, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[id] = entry{impl: impl, provider: provider}
	s.current.Store(&next)
	return nil
}

// Lookup returns the instance published under id in the module's slot.
// It is safe for concurrent use and never blocks.
func (r *Registry) Lookup(moduleName string, id module.CapabilityID) (any, error) {
	s, ok := r.slots[moduleName]
	if !ok {
		return nil, &CapabilityNotFoundError{Module: moduleName, Capability: id, UnknownModule: true}
	}
	e, ok := (*s.current.Load())[id]
	if !ok {
		return nil, &CapabilityNotFoundError{Module: moduleName, Capability: id}
	}
	return e.impl, nil
}

// Capabilities lists what a module has published, sorted by name.
func (r *Registry) Capabilities(moduleName string) []module.CapabilityID {
	s, ok := r.slots[moduleName]
	if !ok {
		return nil
	}
	current := *s.current.Load()
	ids := make([]module.CapabilityID, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b module.CapabilityID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// Seal closes the registry for writes. The boot sequencer seals it once
// every provider has completed.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

var _ module.Reader = (*Registry)(nil)
