package accessory

import (
	"time"

	"github.com/google/uuid"
)

// shellNamespace scopes shell UUIDs so the same IEEE address always maps
// to the same shell across restarts.
var shellNamespace = uuid.MustParse("6f1c3b9e-7d0a-5c4e-9b21-3a8f4e2d1c07")

// Shell is the persistent placeholder a handler is attached to. It survives
// restarts through the platform's shell cache.
type Shell struct {
	UUID        string
	DisplayName string
	Address     string
	Context     map[string]any
	CreatedAt   time.Time
}

// ShellID returns the deterministic shell UUID for a device address.
func ShellID(addr string) string {
	return uuid.NewSHA1(shellNamespace, []byte(addr)).String()
}

// NewShell allocates a fresh shell for dev.
func NewShell(dev Device) *Shell {
	return &Shell{
		UUID:        ShellID(dev.IEEEAddress),
		DisplayName: dev.DisplayName(),
		Address:     dev.IEEEAddress,
		Context:     make(map[string]any),
		CreatedAt:   time.Now().UTC(),
	}
}
