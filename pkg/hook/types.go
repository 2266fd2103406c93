// Package hook runs user-supplied Tengo scripts at fixed points of the
// acquisition pipeline.
package hook

// Type identifies a pipeline point a script can attach to.
type Type string

// Supported hook types.
const (
	PreInstall    Type = "pre-install"
	PostVerify    Type = "post-verify"
	PostInstall   Type = "post-install"
	PostUninstall Type = "post-uninstall"
)

// Hook is a script bound to a pipeline point.
type Hook struct {
	Type    Type
	Content string
}

// Context carries pipeline state into a hook script.
type Context struct {
	Repo         string
	Version      string
	ArtifactPath string
	InstallDir   string
	Vars         map[string]interface{}
}

// Manager registers and executes hooks.
type Manager interface {
	// Execute runs the hook for the given type, if one is registered.
	Execute(hookType Type, ctx Context) error

	// AddHook registers a hook, replacing any previous one of the same type.
	AddHook(hook Hook) error

	// RemoveHook unregisters the hook of the given type.
	RemoveHook(hookType Type) error

	// HasHook reports whether a hook of the given type is registered.
	HasHook(hookType Type) bool
}
