package hook

import (
	"sync"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

// DefaultManager is the default implementation of Manager.
type DefaultManager struct {
	executor *TengoExecutor
	mutex    sync.RWMutex
}

// NewManager creates a new hook manager.
func NewManager() *DefaultManager {
	return &DefaultManager{
		executor: NewTengoExecutor(),
	}
}

// Execute runs the hook registered for hookType with the given context.
func (m *DefaultManager) Execute(hookType Type, ctx Context) error {
	if !m.HasHook(hookType) {
		return nil
	}

	ctxCopy := ctx
	if ctxCopy.Vars == nil {
		ctxCopy.Vars = make(map[string]interface{})
	}
	return m.executor.Execute(hookType, ctxCopy)
}

// AddHook registers a hook.
func (m *DefaultManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return pkgerrors.ErrHookTypeEmpty
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// RemoveHook unregisters the hook of the given type.
func (m *DefaultManager) RemoveHook(hookType Type) error {
	if hookType == "" {
		return pkgerrors.ErrHookTypeEmpty
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.executor.RemoveScript(hookType)
	return nil
}

// HasHook reports whether a hook of the given type is registered.
func (m *DefaultManager) HasHook(hookType Type) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.executor.HasScript(hookType)
}
