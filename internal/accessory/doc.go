// Package accessory maps Zigbee devices to the handlers that expose their
// capabilities.
//
// # Lifecycle
//
//	NewRegistry ──▶ RegisterClass / RegisterFactory ... ──▶ Freeze ──▶ *Catalog
//	 (Unpopulated)        last write wins per pair          (Populated)
//	                                                              │
//	                                              NewResolver ◀───┘
//	                                                  │
//	                               Resolve(Identity) / Attach(BuildContext)
//
// Registration is a single-goroutine startup phase. Resolution is only
// offered on a Catalog, which can only be obtained from Freeze, so a
// lookup before population cannot be written. Lookups on a Catalog are
// lock-free.
//
// # Identity matching
//
// Manufacturer and model strings are matched exactly. A binding declared
// for {"Xiaomi", "LUMI"} is stored under both aliases; compound models such
// as "E1603/E1702" are single literal keys.
//
// # Usage
//
//	reg := accessory.NewRegistry()
//	if err := devices.RegisterSupportedDevices(reg); err != nil {
//	    return err
//	}
//	if err := devicedb.Register(reg, records); err != nil {
//	    return err
//	}
//	resolver := accessory.NewResolver(reg.Freeze())
//
//	h, err := resolver.Attach(accessory.BuildContext{
//	    Platform: p, Client: client, Device: dev,
//	})
//	if errors.Is(err, accessory.ErrUnsupportedDevice) {
//	    // leave the device unattached
//	}
package accessory
