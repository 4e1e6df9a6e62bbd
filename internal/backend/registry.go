// ABOUTME: Ordered registry of active authentication backends
// ABOUTME: Supports idempotent config-driven setup via a closed driver table

package backend

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Spec describes one backend declared in configuration: a driver name from
// the driver table plus its ordered constructor arguments.
type Spec struct {
	Driver string   `yaml:"driver"`
	Args   []string `yaml:"args"`
}

// Constructor builds a backend instance from its declared arguments.
type Constructor func(args []string) (Backend, error)

// Registry holds the ordered set of active backends for one server.
// Mutation is mutex-guarded; setup is expected during bootstrap but the
// registry stays safe if a reload re-runs it while requests are in flight.
type Registry struct {
	mu       sync.Mutex
	backends []Backend
	drivers  map[string]Constructor
	applied  map[string]bool
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default().With("component", "backend")
	}
	return &Registry{
		drivers: make(map[string]Constructor),
		applied: make(map[string]bool),
		logger:  logger,
	}
}

// RegisterDriver adds a named constructor to the driver table. Later
// registrations replace earlier ones for the same name.
func (r *Registry) RegisterDriver(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[name] = ctor
}

// Register appends a backend to the active list. Registering the same
// instance twice yields two entries; callers that need de-duplication use
// SetupFromConfig, which is idempotent per declared key.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = append(r.backends, b)
}

// RegisterByName constructs and registers a backend from a well-known name.
// "database", "mysql" and "sqlite" all map to the database driver, "dummy"
// to the test driver; any other name is looked up in the driver table.
// Returns *ConfigurationError when nothing matches.
func (r *Registry) RegisterByName(name string) error {
	driver := name
	switch name {
	case "database", "mysql", "sqlite":
		driver = "database"
	case "dummy":
	}

	r.mu.Lock()
	ctor, ok := r.drivers[driver]
	r.mu.Unlock()
	if !ok {
		return &ConfigurationError{Name: name}
	}

	b, err := ctor(nil)
	if err != nil {
		return err
	}

	r.logger.Debug("adding user backend", "name", name, "backend", b.Name())
	r.Register(b)
	return nil
}

// Clear removes all registered backends. Used when configuration disables
// the default backend set. The applied-key tracking survives a Clear, so a
// later SetupFromConfig does not re-register keys it already handled.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = nil
}

// SetupFromConfig registers one backend per declared key. Keys are applied
// at most once per registry lifetime; repeated calls with the same config
// are no-ops. Unknown drivers and construction failures are logged and
// skipped so a misconfigured optional backend never locks everyone out.
func (r *Registry) SetupFromConfig(specs map[string]Spec) {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		spec := specs[key]

		r.mu.Lock()
		if r.applied[key] {
			r.mu.Unlock()
			r.logger.Debug("user backend already initialized", "key", key, "driver", spec.Driver)
			continue
		}
		ctor, ok := r.drivers[spec.Driver]
		r.mu.Unlock()

		if !ok {
			r.logger.Error("user backend not found", "key", key, "driver", spec.Driver)
			continue
		}

		b, err := ctor(spec.Args)
		if err != nil {
			r.logger.Error("user backend construction failed", "key", key, "driver", spec.Driver, "error", err)
			continue
		}

		r.logger.Debug("adding user backend", "key", key, "backend", b.Name())

		r.mu.Lock()
		r.backends = append(r.backends, b)
		r.applied[key] = true
		r.mu.Unlock()
	}
}

// FirstActive scans backends in registration order and returns the first
// one that supports external session assertion and reports an active
// session, or nil when none does. This is the SSO entry point.
func (r *Registry) FirstActive(ctx context.Context) External {
	for _, b := range r.Backends() {
		ext, ok := b.(External)
		if !ok {
			continue
		}
		if ext.SessionActive(ctx) {
			return ext
		}
	}
	return nil
}

// Lookup returns the first registered backend with the given name, or nil.
func (r *Registry) Lookup(name string) Backend {
	for _, b := range r.Backends() {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Backends returns a snapshot of the registered backends in order.
func (r *Registry) Backends() []Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Backend, len(r.backends))
	copy(out, r.backends)
	return out
}
