package bank

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPlugin indicates a configured plugin name with no registered
// factory.
var ErrUnknownPlugin = errors.New("unregistered format plugin")

// Preprocessor reworks a source file before loading, returning the path to
// read (usually the same one, rewritten in place).
type Preprocessor interface {
	Preprocess(path string) (string, error)
}

// PreprocessorFunc adapts a function to the Preprocessor interface.
type PreprocessorFunc func(path string) (string, error)

// Preprocess calls f.
func (f PreprocessorFunc) Preprocess(path string) (string, error) { return f(path) }

// Factory builds a Preprocessor from the bank format's plugin arguments.
type Factory func(args []string) (Preprocessor, error)

// Registry maps plugin names to factories. Population happens through
// explicit Register calls at startup; there is no dynamic loading.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on duplicate name.
func (r *Registry) Register(name string, f Factory) {
	key := strings.ToLower(name)
	if _, ok := r.factories[key]; ok {
		panic("duplicate plugin name: " + key)
	}
	r.factories[key] = f
}

// Build resolves a plugin name into a Preprocessor. An empty name yields
// the identity preprocessor; an unknown one fails.
func (r *Registry) Build(name string, args []string) (Preprocessor, error) {
	if name == "" {
		return PreprocessorFunc(func(path string) (string, error) { return path, nil }), nil
	}
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrUnknownPlugin)
	}
	return f(args)
}
