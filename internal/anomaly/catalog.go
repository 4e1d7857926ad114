package anomaly

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape of the anomaly content file.
type catalogFile struct {
	Anomalies []Anomaly `yaml:"anomalies"`
}

// Catalog holds the loaded anomaly content. Reads are concurrent-safe; the
// only writer is Reload (used by the optional hot-reload watcher).
type Catalog struct {
	mu     sync.RWMutex
	path   string
	byID   map[string]*Anomaly
	order  []string
	logger *zap.Logger
}

// LoadCatalog reads and validates the anomaly content file.
func LoadCatalog(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{path: path, logger: logger.Named("catalog")}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the content file. On any validation failure the previous
// content is kept untouched.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Anomalies) == 0 {
		return fmt.Errorf("catalog %s contains no anomalies", c.path)
	}

	byID := make(map[string]*Anomaly, len(file.Anomalies))
	order := make([]string, 0, len(file.Anomalies))
	for i := range file.Anomalies {
		a := file.Anomalies[i]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("catalog %s: %w", c.path, err)
		}
		if _, dup := byID[a.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate anomaly id %s", c.path, a.ID)
		}
		byID[a.ID] = &a
		order = append(order, a.ID)
	}

	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.mu.Unlock()

	c.logger.Info("Catalog loaded", zap.String("path", c.path), zap.Int("anomalies", len(order)))
	return nil
}

// Get returns the anomaly with the given id.
func (c *Catalog) Get(id string) (*Anomaly, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[id]
	return a, ok
}

// All returns the anomalies in file order.
func (c *Catalog) All() []*Anomaly {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Anomaly, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// RequiredIDs returns the ids of anomalies that gate the victory condition.
func (c *Catalog) RequiredIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, id := range c.order {
		if c.byID[id].Required {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of loaded anomalies.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
