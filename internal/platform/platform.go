package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/audit"
)

// auditTimeout bounds audit writes made from message handlers.
const auditTimeout = 5 * time.Second

// Options configures a Platform.
type Options struct {
	// Catalog is the frozen capability catalog. Required.
	Catalog *accessory.Catalog

	// Client is the transport client. Required.
	Client accessory.Client

	// Shells caches shells across restarts. Optional.
	Shells ShellRepository

	// Audit records lifecycle events. Optional.
	Audit audit.Repository

	// PruneStaleShells removes cached shells of unpaired devices after the
	// first discovery.
	PruneStaleShells bool

	Logger accessory.Logger
}

// Accessory is the public view of an attached handler.
type Accessory struct {
	Address         string              `json:"address"`
	ShellUUID       string              `json:"uuid"`
	DisplayName     string              `json:"displayName"`
	Kind            string              `json:"kind"`
	Services        []accessory.Service `json:"services"`
	Characteristics map[string]any      `json:"characteristics"`
}

// DiscoverResult summarises one discovery pass.
type DiscoverResult struct {
	Attached    int `json:"attached"`
	Unsupported int `json:"unsupported"`
	Failed      int `json:"failed"`
	Detached    int `json:"detached"`
	Pruned      int `json:"pruned"`
}

// Platform attaches handlers to paired devices and routes their state.
//
// Thread Safety: All methods are safe for concurrent use.
type Platform struct {
	resolver *accessory.Resolver
	client   accessory.Client
	shells   ShellRepository
	audit    audit.Repository
	logger   accessory.Logger

	handlers   map[string]accessory.Handler
	handlersMu sync.RWMutex

	// unsupported remembers addresses already audited as unsupported.
	unsupported map[string]bool

	discoverMu sync.Mutex
	prune      bool
	pruned     bool

	sinks   []Sink
	sinksMu sync.RWMutex
}

var _ accessory.Platform = (*Platform)(nil)

// New creates a platform over a populated catalog.
func New(opts Options) (*Platform, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = accessory.NoopLogger{}
	}

	return &Platform{
		resolver:    accessory.NewResolver(opts.Catalog),
		client:      opts.Client,
		shells:      opts.Shells,
		audit:       opts.Audit,
		logger:      logger,
		handlers:    make(map[string]accessory.Handler),
		unsupported: make(map[string]bool),
		prune:       opts.PruneStaleShells,
	}, nil
}

// Logger returns the platform logger handed to handlers.
func (p *Platform) Logger() accessory.Logger { return p.logger }

// AddSink registers a sink for platform events.
func (p *Platform) AddSink(s Sink) {
	p.sinksMu.Lock()
	p.sinks = append(p.sinks, s)
	p.sinksMu.Unlock()
}

// Supported reports whether dev resolves to a handler.
func (p *Platform) Supported(dev accessory.Device) bool {
	return p.resolver.Supported(dev)
}

// HandlerKind returns the kind of the handler attached to addr.
func (p *Platform) HandlerKind(addr string) (string, bool) {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()
	h, ok := p.handlers[addr]
	if !ok {
		return "", false
	}
	return h.Kind(), true
}

// Accessories lists attached handlers ordered by address.
func (p *Platform) Accessories() []Accessory {
	p.handlersMu.RLock()
	out := make([]Accessory, 0, len(p.handlers))
	for addr, h := range p.handlers {
		out = append(out, view(addr, h))
	}
	p.handlersMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Accessory returns the attached handler for addr.
func (p *Platform) Accessory(addr string) (Accessory, bool) {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()
	h, ok := p.handlers[addr]
	if !ok {
		return Accessory{}, false
	}
	return view(addr, h), true
}

func view(addr string, h accessory.Handler) Accessory {
	return Accessory{
		Address:         addr,
		ShellUUID:       h.Shell().UUID,
		DisplayName:     h.Shell().DisplayName,
		Kind:            h.Kind(),
		Services:        h.Services(),
		Characteristics: h.Characteristics(),
	}
}

// Discover attaches a handler to every paired device that has none, and
// detaches handlers of devices that are no longer paired. Unsupported
// devices are logged and skipped; a failing factory leaves its device
// unattached.
func (p *Platform) Discover(ctx context.Context) (DiscoverResult, error) {
	p.discoverMu.Lock()
	defer p.discoverMu.Unlock()

	var result DiscoverResult
	paired := p.client.PairedDevices()
	present := make(map[string]bool, len(paired))

	for _, dev := range paired {
		present[dev.IEEEAddress] = true
		if _, attached := p.HandlerKind(dev.IEEEAddress); attached {
			continue
		}

		h, err := p.attach(ctx, dev)
		switch {
		case errors.Is(err, accessory.ErrUnsupportedDevice):
			result.Unsupported++
			p.logger.Info("unsupported device", "address", dev.IEEEAddress,
				"manufacturer", dev.Manufacturer, "model", dev.Model)
			if !p.unsupported[dev.IEEEAddress] {
				p.unsupported[dev.IEEEAddress] = true
				p.record(ctx, audit.ActionUnsupported, dev.IEEEAddress, audit.SourceDiscovery, map[string]any{
					"manufacturer": dev.Manufacturer,
					"model":        dev.Model,
				})
			}
		case err != nil:
			result.Failed++
			p.logger.Error("attaching device failed", "address", dev.IEEEAddress, "error", err)
			p.record(ctx, audit.ActionAttachError, dev.IEEEAddress, audit.SourceDiscovery, map[string]any{
				"error": err.Error(),
			})
		default:
			result.Attached++
			p.emit(Event{Type: EventAttached, Address: dev.IEEEAddress, Kind: h.Kind()})
		}
	}

	p.handlersMu.Lock()
	var gone []string
	for addr := range p.handlers {
		if !present[addr] {
			gone = append(gone, addr)
			delete(p.handlers, addr)
		}
	}
	p.handlersMu.Unlock()
	for _, addr := range gone {
		result.Detached++
		p.emit(Event{Type: EventRemoved, Address: addr})
	}

	// An empty list usually means bridge/devices has not arrived yet.
	if p.prune && !p.pruned && len(paired) > 0 {
		p.pruned = true
		n, err := p.pruneStale(ctx, present)
		if err != nil {
			return result, err
		}
		result.Pruned = n
	}

	p.logger.Info("discovery complete",
		"paired", len(paired),
		"attached", result.Attached,
		"unsupported", result.Unsupported,
		"failed", result.Failed)
	return result, nil
}

func (p *Platform) attach(ctx context.Context, dev accessory.Device) (accessory.Handler, error) {
	if !p.resolver.Supported(dev) {
		return nil, fmt.Errorf("%w: %s", accessory.ErrUnsupportedDevice, dev.Identity())
	}

	shell, err := p.restoreShell(ctx, dev)
	if err != nil {
		return nil, err
	}

	h, err := p.resolver.Attach(accessory.BuildContext{
		Platform: p,
		Shell:    shell,
		Client:   p.client,
		Device:   dev,
	})
	if err != nil {
		return nil, err
	}

	if p.shells != nil {
		if err := p.shells.Save(ctx, h.Shell(), h.Kind()); err != nil {
			p.logger.Warn("caching shell failed", "address", dev.IEEEAddress, "error", err)
		}
	}

	p.handlersMu.Lock()
	p.handlers[dev.IEEEAddress] = h
	p.handlersMu.Unlock()

	p.logger.Info("device attached", "address", dev.IEEEAddress, "kind", h.Kind(), "shell", h.Shell().UUID)
	p.record(ctx, audit.ActionAttach, dev.IEEEAddress, audit.SourceDiscovery, map[string]any{
		"kind": h.Kind(),
	})
	return h, nil
}

// restoreShell returns the cached shell for dev, or a new one.
func (p *Platform) restoreShell(ctx context.Context, dev accessory.Device) (*accessory.Shell, error) {
	if p.shells == nil {
		return accessory.NewShell(dev), nil
	}
	shell, err := p.shells.Get(ctx, dev.IEEEAddress)
	switch {
	case errors.Is(err, ErrShellNotFound):
		return accessory.NewShell(dev), nil
	case err != nil:
		return nil, fmt.Errorf("restoring shell: %w", err)
	}
	shell.DisplayName = dev.DisplayName()
	return shell, nil
}

func (p *Platform) pruneStale(ctx context.Context, present map[string]bool) (int, error) {
	if p.shells == nil {
		return 0, nil
	}
	cached, err := p.shells.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing cached shells: %w", err)
	}

	pruned := 0
	for _, c := range cached {
		if present[c.Shell.Address] {
			continue
		}
		if err := p.shells.Delete(ctx, c.Shell.Address); err != nil && !errors.Is(err, ErrShellNotFound) {
			return pruned, fmt.Errorf("pruning shell %s: %w", c.Shell.Address, err)
		}
		pruned++
		p.logger.Info("pruned stale shell", "address", c.Shell.Address, "kind", c.HandlerKind)
		p.record(ctx, audit.ActionPrune, c.Shell.Address, audit.SourceStartup, map[string]any{
			"kind": c.HandlerKind,
		})
	}
	return pruned, nil
}

// HandleState forwards a state report to the device's handler and to every sink.
func (p *Platform) HandleState(addr string, state accessory.State) {
	p.handlersMu.RLock()
	h, ok := p.handlers[addr]
	p.handlersMu.RUnlock()

	ev := Event{Type: EventStateChanged, Address: addr, State: state}
	if ok {
		h.Update(state)
		ev.Kind = h.Kind()
		ev.Characteristics = h.Characteristics()
	}
	p.emit(ev)
}

// SetState sends state to a paired device and returns its report. The
// report reaches the attached handler through the client's state callback,
// not through this call.
func (p *Platform) SetState(ctx context.Context, addr string, state accessory.State) (accessory.State, error) {
	dev, ok := p.client.Device(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, addr)
	}
	reply, err := p.client.SetState(ctx, dev, state)
	if err != nil {
		return nil, err
	}
	p.record(ctx, audit.ActionSetState, addr, audit.SourceAPI, map[string]any{"state": map[string]any(state)})
	return reply, nil
}

// Identify asks the attached handler to make its device noticeable.
func (p *Platform) Identify(ctx context.Context, addr string) error {
	p.handlersMu.RLock()
	h, ok := p.handlers[addr]
	p.handlersMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, addr)
	}
	return h.Identify(ctx)
}

// Unpair removes the device from the network, detaches its handler and
// forgets its shell.
func (p *Platform) Unpair(ctx context.Context, addr string) error {
	if err := p.client.Unpair(ctx, addr); err != nil {
		return fmt.Errorf("unpairing %s: %w", addr, err)
	}

	p.handlersMu.Lock()
	_, attached := p.handlers[addr]
	delete(p.handlers, addr)
	p.handlersMu.Unlock()

	if p.shells != nil {
		if err := p.shells.Delete(ctx, addr); err != nil && !errors.Is(err, ErrShellNotFound) {
			p.logger.Warn("forgetting shell failed", "address", addr, "error", err)
		}
	}

	p.logger.Info("device unpaired", "address", addr)
	p.record(ctx, audit.ActionUnpair, addr, audit.SourceAPI, nil)
	if attached {
		p.emit(Event{Type: EventRemoved, Address: addr})
	}
	return nil
}

func (p *Platform) emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	p.sinksMu.RLock()
	sinks := p.sinks
	p.sinksMu.RUnlock()
	for _, s := range sinks {
		s.HandleEvent(ev)
	}
}

func (p *Platform) record(ctx context.Context, action, addr, source string, details map[string]any) {
	if p.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	err := p.audit.Create(ctx, &audit.Entry{
		Action:     action,
		EntityType: audit.EntityAccessory,
		EntityID:   addr,
		Source:     source,
		Details:    details,
	})
	if err != nil {
		p.logger.Warn("audit write failed", "action", action, "address", addr, "error", err)
	}
}
