package accessory

// Identity is the (manufacturer, model) pair a live device reports.
// Both strings are used exactly as reported.
type Identity struct {
	Manufacturer string
	Model        string
}

// Key is the registry lookup key for one (manufacturer, model) pair.
// Keys are comparable and safe to use as map keys.
type Key struct {
	manufacturer string
	model        string
}

// Normalize returns the lookup key for a reported manufacturer and model.
//
// No case folding, whitespace trimming, or splitting of compound models
// (for example "E1603/E1702") takes place. Aliases are not collapsed: the
// registry stores one key per declared alias instead.
func Normalize(manufacturer, model string) Key {
	return Key{manufacturer: manufacturer, model: model}
}

// Key returns the normalized lookup key for the identity.
func (id Identity) Key() Key {
	return Normalize(id.Manufacturer, id.Model)
}

// String renders the identity as "manufacturer/model" for logs.
func (id Identity) String() string {
	return id.Manufacturer + "/" + id.Model
}

// Manufacturer returns the manufacturer part of the key.
func (k Key) Manufacturer() string { return k.manufacturer }

// Model returns the model part of the key.
func (k Key) Model() string { return k.model }

// String renders the key as "manufacturer/model".
func (k Key) String() string {
	return k.manufacturer + "/" + k.model
}

// Manufacturers is a set of manufacturer aliases that identify the same
// product line, e.g. {"Xiaomi", "LUMI"}.
type Manufacturers []string

// Vendor is shorthand for a single-alias manufacturer set.
func Vendor(name string) Manufacturers {
	return Manufacturers{name}
}
