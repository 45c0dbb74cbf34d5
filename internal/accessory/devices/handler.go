package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// serviceHandler maps zigbee2mqtt state documents onto characteristic
// values for each of its services.
type serviceHandler struct {
	kind     string
	platform accessory.Platform
	shell    *accessory.Shell
	client   accessory.Client
	device   accessory.Device
	services []accessory.Service

	mu     sync.RWMutex
	values map[string]any
}

// newServiceHandler takes ownership of services.
func newServiceHandler(kind string, bc accessory.BuildContext, services []accessory.Service) *serviceHandler {
	return &serviceHandler{
		kind:     kind,
		platform: bc.Platform,
		shell:    bc.Shell,
		client:   bc.Client,
		device:   bc.Device,
		services: services,
		values:   make(map[string]any),
	}
}

func (h *serviceHandler) Kind() string            { return h.kind }
func (h *serviceHandler) Shell() *accessory.Shell { return h.shell }

// Services returns a copy of the handler's service descriptors.
func (h *serviceHandler) Services() []accessory.Service {
	return accessory.CloneServices(h.services)
}

// Update applies a state report to every service.
func (h *serviceHandler) Update(state accessory.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, svc := range h.services {
		prefix := string(svc.Type)
		if svc.Meta.Endpoint != "" {
			prefix += "/" + svc.Meta.Endpoint
		}
		for name, v := range mapService(svc, state) {
			h.values[prefix+"."+name] = v
		}
	}
}

// Characteristics returns a snapshot of the current values.
func (h *serviceHandler) Characteristics() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]any, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// Identify blinks lights. Other devices have nothing to show.
func (h *serviceHandler) Identify(ctx context.Context) error {
	if h.client == nil || !h.hasService(accessory.ServiceLightBulb) {
		return nil
	}
	h.logger().Debug("identifying accessory", "address", h.device.IEEEAddress, "kind", h.kind)
	if _, err := h.client.SetState(ctx, h.device, accessory.State{"effect": "blink"}); err != nil {
		return fmt.Errorf("identify %s: %w", h.device.DisplayName(), err)
	}
	return nil
}

func (h *serviceHandler) hasService(t accessory.ServiceType) bool {
	for _, svc := range h.services {
		if svc.Type == t {
			return true
		}
	}
	return false
}

func (h *serviceHandler) logger() accessory.Logger {
	if h.platform == nil {
		return accessory.NoopLogger{}
	}
	return h.platform.Logger()
}
