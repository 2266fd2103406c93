package hook

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

const scriptExtension = ".tengo"

var knownTypes = map[Type]bool{
	PreInstall:    true,
	PostVerify:    true,
	PostInstall:   true,
	PostUninstall: true,
}

// LoadFromDir registers every recognized hook script found in dir. Scripts
// are named after their type, e.g. pre-install.tengo. A missing directory is
// not an error; files with unknown names or other extensions are skipped.
func LoadFromDir(manager Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrapf(err, "reading hook directory %s", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != scriptExtension {
			continue
		}
		hookType := Type(strings.TrimSuffix(entry.Name(), scriptExtension))
		if !knownTypes[hookType] {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return pkgerrors.Wrapf(err, "reading hook script %s", entry.Name())
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return pkgerrors.Wrapf(err, "registering hook %s", hookType)
		}
	}
	return nil
}
