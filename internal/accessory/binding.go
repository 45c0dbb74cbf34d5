package accessory

import "fmt"

// BindingKind tags how a Binding constructs its handler.
type BindingKind int

const (
	// KindType constructs through a HandlerType.
	KindType BindingKind = iota
	// KindFactory constructs through a Factory closure.
	KindFactory
)

// String returns the kind name.
func (k BindingKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindFactory:
		return "factory"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// Binding is one registration: every (manufacturer, model) pair of the
// call shares the same *Binding.
type Binding struct {
	kind    BindingKind
	typ     HandlerType
	factory Factory
}

// Kind reports the construction strategy.
func (b *Binding) Kind() BindingKind { return b.kind }

// Name returns the handler type name, or "factory" for factory bindings.
func (b *Binding) Name() string {
	if b.kind == KindType {
		return b.typ.Name
	}
	return "factory"
}

// Build produces a handler for bc.
func (b *Binding) Build(bc BuildContext) (Handler, error) {
	var (
		h   Handler
		err error
	)
	switch b.kind {
	case KindType:
		h = b.typ.New(bc)
	case KindFactory:
		h, err = b.factory(bc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBuildFailed, bc.Device.Identity(), err)
		}
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilHandler, b.Name())
	}
	return h, nil
}
