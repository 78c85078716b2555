package capability

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
)

// ListCameras is the query argument that produces a camera listing.
const ListCameras = "--list-cameras"

// Catalog remembers the last successful camera scan.
type Catalog struct {
	mu      sync.RWMutex
	cameras []Descriptor

	logs   *logstream.Stream
	logger *zap.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(logs *logstream.Stream, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{logs: logs, logger: logger}
}

// Ingest parses a camera listing. A parse that yields nothing from
// non-empty output leaves the previous list in place and logs a
// diagnostic. The returned bool reports whether the list was replaced.
func (c *Catalog) Ingest(raw string) ([]Descriptor, bool) {
	found := Parse(raw)
	if len(found) == 0 {
		if strings.TrimSpace(raw) != "" {
			c.logs.System("No cameras parsed from output. Please check the console above.")
			c.logger.Warn("camera listing did not match any grammar", zap.Int("bytes", len(raw)))
		}
		return c.Cameras(), false
	}

	c.mu.Lock()
	c.cameras = found
	c.mu.Unlock()
	c.logger.Debug("cameras detected", zap.Int("count", len(found)))
	return append([]Descriptor(nil), found...), true
}

// Cameras returns the last successful scan.
func (c *Catalog) Cameras() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Descriptor{}, c.cameras...)
}

// Reset forgets the list, e.g. when the active device changes.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.cameras = nil
	c.mu.Unlock()
}
