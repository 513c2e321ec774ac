package actions

import (
	"sort"
	"sync"

	"github.com/rendis/runcase/pkg/model"
)

// Registry is the concrete thread-safe ActionRegistry implementation.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

var _ ActionRegistry = (*Registry)(nil)

// Register adds an action to the registry. Returns an error on a nil
// action, an empty name, or a duplicate name.
func (r *Registry) Register(action Action) error {
	if action == nil {
		return model.NewError(model.ErrCodeValidation, "action is nil")
	}
	name := action.Name()
	if name == "" {
		return model.NewError(model.ErrCodeValidation, "action name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return model.NewErrorf(model.ErrCodeValidation, "action %q already registered", name)
	}

	r.actions[name] = action
	return nil
}

// Get retrieves an action by kind name.
func (r *Registry) Get(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]
	if !ok {
		return nil, model.NewErrorf(model.ErrCodeActionUnavailable, "action %q not registered", name)
	}
	return action, nil
}

// Has reports whether an action kind is registered. The scheduler itself
// looks kinds up with Get at dispatch time for each step (an unregistered
// kind fails that step rather than failing validation up front, since a
// kind may be registered by caller code after load).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// List returns the names of every registered action, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
