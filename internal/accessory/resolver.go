package accessory

import "fmt"

// Resolver maps live devices to handlers using a populated Catalog.
// It keeps no per-device state; the caller owns every handler it builds.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve looks up the binding for id. A false result means the device is
// unsupported; it is a classification, not a failure.
func (r *Resolver) Resolve(id Identity) (*Binding, bool) {
	return r.catalog.Lookup(id)
}

// Supported reports whether dev resolves to a binding.
func (r *Resolver) Supported(dev Device) bool {
	_, ok := r.Resolve(dev.Identity())
	return ok
}

// Attach resolves bc.Device and builds its handler. A nil bc.Shell is
// replaced with a freshly allocated one. Returns ErrUnsupportedDevice when
// no binding matches.
func (r *Resolver) Attach(bc BuildContext) (Handler, error) {
	b, ok := r.Resolve(bc.Device.Identity())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDevice, bc.Device.Identity())
	}
	if bc.Shell == nil {
		bc.Shell = NewShell(bc.Device)
	}
	return b.Build(bc)
}
