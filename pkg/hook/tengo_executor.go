package hook

import (
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

// TengoExecutor compiles and runs hook scripts.
type TengoExecutor struct {
	scripts map[Type]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[Type]string),
	}
}

// Execute runs the script registered for hookType. A missing script is not an
// error. A script signals failure by assigning a non-empty string or error to
// the variable "err".
func (e *TengoExecutor) Execute(hookType Type, ctx Context) error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	script, exists := e.scripts[hookType]
	if !exists {
		return nil
	}

	instance := tengo.NewScript([]byte(script))
	instance.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	_ = instance.Add("repo", ctx.Repo)
	_ = instance.Add("version", ctx.Version)
	_ = instance.Add("artifactPath", ctx.ArtifactPath)
	_ = instance.Add("installDir", ctx.InstallDir)
	for k, v := range ctx.Vars {
		_ = instance.Add(k, v)
	}

	compiled, err := instance.Run()
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrHookExecution, "%s: %v", hookType, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return pkgerrors.Wrap(pkgerrors.ErrHookScript, v.Error())
		case string:
			if v != "" {
				return pkgerrors.Wrap(pkgerrors.ErrHookScript, v)
			}
		}
	}
	return nil
}

// AddScript adds or replaces the script for hookType.
func (e *TengoExecutor) AddScript(hookType Type, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for hookType.
func (e *TengoExecutor) RemoveScript(hookType Type) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript reports whether a script is registered for hookType.
func (e *TengoExecutor) HasScript(hookType Type) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
