package accessory

import "fmt"

// Registry collects bindings during the startup registration phase.
//
// A Registry starts Unpopulated. RegisterClass and RegisterFactory expand
// their manufacturer and model sets into one flat entry per pair; a later
// registration for an identical pair silently replaces the earlier one.
// Freeze moves the registry to Populated and returns the read-only
// Catalog used for resolution. There is no way back.
//
// A Registry is not safe for concurrent use. Registration runs on a single
// goroutine before anything resolves.
type Registry struct {
	bindings map[Key]*Binding
	catalog  *Catalog
}

// NewRegistry creates an empty, unpopulated registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Key]*Binding)}
}

// RegisterClass binds every (manufacturer, model) pair to a direct handler type.
func (r *Registry) RegisterClass(manufacturers Manufacturers, models []string, t HandlerType) error {
	if t.Name == "" || t.New == nil {
		return fmt.Errorf("%w: handler type missing name or constructor", ErrInvalidRegistration)
	}
	return r.register(manufacturers, models, &Binding{kind: KindType, typ: t})
}

// RegisterFactory binds every (manufacturer, model) pair to a factory.
func (r *Registry) RegisterFactory(manufacturers Manufacturers, models []string, f Factory) error {
	if f == nil {
		return fmt.Errorf("%w: nil factory", ErrInvalidRegistration)
	}
	return r.register(manufacturers, models, &Binding{kind: KindFactory, factory: f})
}

func (r *Registry) register(manufacturers Manufacturers, models []string, b *Binding) error {
	if r.catalog != nil {
		return ErrRegistryFrozen
	}
	if len(manufacturers) == 0 {
		return fmt.Errorf("%w: empty manufacturer set", ErrInvalidRegistration)
	}
	if len(models) == 0 {
		return fmt.Errorf("%w: empty model set", ErrInvalidRegistration)
	}
	for _, m := range manufacturers {
		if m == "" {
			return fmt.Errorf("%w: empty manufacturer", ErrInvalidRegistration)
		}
	}
	for _, m := range models {
		if m == "" {
			return fmt.Errorf("%w: empty model", ErrInvalidRegistration)
		}
	}

	for _, manufacturer := range manufacturers {
		for _, model := range models {
			r.bindings[Normalize(manufacturer, model)] = b
		}
	}
	return nil
}

// Freeze ends the registration phase and returns the catalog. Calling
// Freeze again returns the same catalog.
func (r *Registry) Freeze() *Catalog {
	if r.catalog == nil {
		r.catalog = &Catalog{bindings: r.bindings}
	}
	return r.catalog
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.catalog != nil
}

// Catalog is the populated, read-only view of a registry. It is never
// written after Freeze, so concurrent lookups need no locking.
//
// A nil *Catalog resolves every identity to not-found.
type Catalog struct {
	bindings map[Key]*Binding
}

// Lookup returns the binding for id, matching manufacturer and model exactly.
func (c *Catalog) Lookup(id Identity) (*Binding, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.bindings[id.Key()]
	return b, ok
}

// Size returns the number of (manufacturer, model) entries.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	return len(c.bindings)
}
