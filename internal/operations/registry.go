package operations

import (
	"fmt"
	"sync"
)

// Registry manages registered operation steps
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
		order: make([]string, 0),
	}
}

// Register adds a Step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return fmt.Errorf("step id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a Step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, fmt.Errorf("step %s not found", id)
	}
	return step, nil
}

// List returns all registered steps in registration order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Levels groups steps by dependency depth using Kahn's algorithm. Every
// step in a level depends only on steps of earlier levels, so a level may
// run concurrently. Steps keep registration order within a level.
func (r *Registry) Levels() ([][]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inDegree := make(map[string]int, len(r.steps))
	dependents := make(map[string][]string, len(r.steps))
	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, exists := r.steps[dep]; !exists {
				return nil, fmt.Errorf("step %s depends on non-existent step %s", id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var current []string
	for _, id := range r.order {
		if inDegree[id] == 0 {
			current = append(current, id)
		}
	}

	var levels [][]Step
	processed := 0
	for len(current) > 0 {
		level := make([]Step, 0, len(current))
		ready := make(map[string]bool)
		for _, id := range current {
			level = append(level, r.steps[id])
			processed++
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready[dependent] = true
				}
			}
		}
		levels = append(levels, level)

		current = current[:0:0]
		for _, id := range r.order {
			if ready[id] {
				current = append(current, id)
			}
		}
	}

	if processed != len(r.steps) {
		return nil, fmt.Errorf("dependency cycle detected")
	}
	return levels, nil
}
