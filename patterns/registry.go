package patterns

import (
	"sort"

	"github.com/cadenzalabs/harmonia/stats"
)

// ConfidenceFunc maps a pattern's raw weight to a match confidence in [0, 1]
type ConfidenceFunc func(score float64) float64

// Registry maps confidence-function names to scoring callables.
// Registration is append-only; names are never overwritten. The registry is
// populated at startup and read-only during analysis.
type Registry struct {
	funcs map[string]ConfidenceFunc
}

// NewRegistry creates a registry pre-populated with the built-in
// confidence functions
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]ConfidenceFunc)}

	// Built-ins. The logistic variants differ in midpoint and slope per
	// pattern family: modal colors need stronger raw evidence before the
	// curve saturates.
	r.funcs["identity"] = func(score float64) float64 {
		return stats.ClampUnit(score)
	}
	r.funcs["logistic"] = logisticFunc(0.5, 8.0)
	r.funcs["logistic_dorian"] = logisticFunc(0.55, 10.0)
	r.funcs["logistic_mixolydian"] = logisticFunc(0.52, 9.0)
	r.funcs["logistic_phrygian"] = logisticFunc(0.58, 10.0)

	return r
}

func logisticFunc(midpoint, slope float64) ConfidenceFunc {
	return func(score float64) float64 {
		return stats.ClampUnit(stats.Logistic(stats.ClampUnit(score), midpoint, slope))
	}
}

// Register adds a named scoring function. Registering an already-registered
// name fails with a DuplicateNameError; existing functions are never replaced.
func (r *Registry) Register(name string, fn ConfidenceFunc) error {
	if _, ok := r.funcs[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	r.funcs[name] = fn
	return nil
}

// Get returns the scoring function registered under name
func (r *Registry) Get(name string) (ConfidenceFunc, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, &UnknownPluginError{Name: name}
	}
	return fn, nil
}

// Names returns the registered function names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
