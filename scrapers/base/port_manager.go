package base

import (
	"fmt"
	"sync"
)

// Chromedriver ports handed out to Selenium fetches
const (
	seleniumBasePort  = 4444
	seleniumPortRange = 16
)

// PortManager hands out chromedriver ports so concurrent Selenium fetches
// never collide.
type PortManager struct {
	mu    sync.Mutex
	base  int
	size  int
	inUse map[int]bool
}

// NewPortManager manages ports [base, base+size)
func NewPortManager(base, size int) *PortManager {
	return &PortManager{base: base, size: size, inUse: make(map[int]bool, size)}
}

// GetPort reserves the lowest free port
func (pm *PortManager) GetPort() (int, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for port := pm.base; port < pm.base+pm.size; port++ {
		if !pm.inUse[port] {
			pm.inUse[port] = true
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available ports in range %d-%d", pm.base, pm.base+pm.size-1)
}

// ReleasePort returns a port to the pool. Ports outside the range are ignored.
func (pm *PortManager) ReleasePort(port int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.inUse, port)
}
