// Package alamos collects in-process measurements. Measurements are grouped into
// experiments, and experiments can be nested. A nil Experiment is valid everywhere
// an Experiment is accepted: metrics created against it record nothing.
package alamos

import "sync"

type Experiment interface {
	// Key returns the key of the experiment.
	Key() string
	// Sub creates a child experiment with the given key.
	Sub(key string) Experiment
	// AddMeasurement registers a measurement with the experiment.
	AddMeasurement(m Measurement)
	// Measurements returns the measurements registered with the experiment.
	Measurements() map[string]Measurement
	// Report returns a JSON friendly snapshot of the experiment and its children.
	Report() map[string]interface{}
}

// Measurement is a named value registered with an Experiment.
type Measurement interface {
	Key() string
	Value() interface{}
}

type experiment struct {
	mu           sync.RWMutex
	key          string
	children     map[string]Experiment
	measurements map[string]Measurement
}

func New(key string) Experiment {
	return &experiment{
		key:          key,
		children:     make(map[string]Experiment),
		measurements: make(map[string]Measurement),
	}
}

// Sub creates a child experiment of exp. Returns nil if exp is nil.
func Sub(exp Experiment, key string) Experiment {
	if exp == nil {
		return nil
	}
	return exp.Sub(key)
}

func (e *experiment) Key() string { return e.key }

func (e *experiment) Sub(key string) Experiment {
	exp := New(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[key] = exp
	return exp
}

func (e *experiment) AddMeasurement(m Measurement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.measurements[m.Key()] = m
}

func (e *experiment) Measurements() map[string]Measurement {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m := make(map[string]Measurement, len(e.measurements))
	for k, v := range e.measurements {
		m[k] = v
	}
	return m
}

func (e *experiment) Report() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r := make(map[string]interface{}, len(e.measurements)+len(e.children))
	for k, m := range e.measurements {
		r[k] = m.Value()
	}
	for k, c := range e.children {
		r[k] = c.Report()
	}
	return r
}
