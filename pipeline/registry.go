package pipeline

import (
	"sort"
	"sync"

	"github.com/kbukum/etlkit/errors"
)

// Factory creates a component from loader options. Implementations
// decode and validate the options map (see DecodeOptions) before
// constructing the component.
type Factory[T any] func(options map[string]any) (T, error)

// Registry manages named component factories of one kind. The zero
// value is not usable; use NewRegistry.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry. kind names the component class
// in error messages ("source", "sink", "transform").
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]Factory[T]),
	}
}

// Register stores a factory under a type name, replacing any previous
// registration. Adapters call this from init().
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create builds a component by registered type name.
func (r *Registry[T]) Create(name string, options map[string]any) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, errors.Newf(errors.KindConfig, "unknown %s type %q (registered: %v)", r.kind, name, r.List())
	}
	return factory(options)
}

// List returns the registered type names, sorted.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Default registries ---

var (
	sources    = NewRegistry[Source]("source")
	sinks      = NewRegistry[Sink]("sink")
	transforms = NewRegistry[Transform]("transform")
)

// RegisterSource registers a source factory in the default registry.
func RegisterSource(name string, factory Factory[Source]) {
	sources.Register(name, factory)
}

// RegisterSink registers a sink factory in the default registry.
func RegisterSink(name string, factory Factory[Sink]) {
	sinks.Register(name, factory)
}

// RegisterTransform registers a transform factory in the default registry.
func RegisterTransform(name string, factory Factory[Transform]) {
	transforms.Register(name, factory)
}

// NewSource builds a source by registered type name.
func NewSource(name string, options map[string]any) (Source, error) {
	return sources.Create(name, options)
}

// NewSink builds a sink by registered type name.
func NewSink(name string, options map[string]any) (Sink, error) {
	return sinks.Create(name, options)
}

// NewTransform builds a transform by registered type name.
func NewTransform(name string, options map[string]any) (Transform, error) {
	return transforms.Create(name, options)
}

// Sources returns the registered source type names.
func Sources() []string { return sources.List() }

// Sinks returns the registered sink type names.
func Sinks() []string { return sinks.List() }

// Transforms returns the registered transform type names.
func Transforms() []string { return transforms.List() }
