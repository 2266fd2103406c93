package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/moddex/moddexup/internal/logger"
	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/fsutil"
	"github.com/moddex/moddexup/pkg/model"
)

// installerExitError preserves the installer's exit code across the error
// chain so the process can propagate it.
type installerExitError struct {
	code int
}

func (e *installerExitError) Error() string {
	return fmt.Sprintf("installer exited with status %d", e.code)
}

func (e *installerExitError) Is(target error) bool {
	return target == pkgerrors.ErrInstallerExit
}

// ExitCode maps an error returned by a command to a process exit code. An
// installer failure propagates the installer's own code; anything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var installerErr *installerExitError
	if errors.As(err, &installerErr) {
		return installerErr.code
	}
	return 1
}

// ExecuteHandoff runs the installer entry point described by the handoff,
// passing stdio through. When the handoff requires root and the process lacks
// it, sudo is prepended if available; otherwise the script runs directly and
// enforces its own privilege requirements.
func ExecuteHandoff(ctx context.Context, handoff *model.Handoff, extraArgs []string) error {
	if handoff == nil || handoff.Path == "" {
		return pkgerrors.ErrHandoffMissing
	}
	if !fsutil.FileExists(handoff.Path) {
		return pkgerrors.Wrapf(pkgerrors.ErrHandoffMissing, "%s", handoff.Path)
	}

	argv := make([]string, 0, len(handoff.Args)+len(extraArgs)+2)
	argv = append(argv, handoff.Path)
	argv = append(argv, handoff.Args...)
	argv = append(argv, extraArgs...)

	if handoff.NeedsRoot && os.Geteuid() != 0 {
		if sudoPath, err := exec.LookPath("sudo"); err == nil {
			argv = append([]string{sudoPath}, argv...)
		} else {
			logger.Warn("sudo not found, invoking installer without privilege escalation", logger.Fields{
				"path": handoff.Path,
			})
		}
	}

	logger.Debug("handing off to installer", logger.Fields{
		"command": argv[0],
		"dir":     handoff.Dir,
	})

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = handoff.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &installerExitError{code: exitErr.ExitCode()}
		}
		if errors.Is(err, exec.ErrNotFound) {
			return pkgerrors.Wrapf(pkgerrors.ErrToolMissing, "%s", argv[0])
		}
		return pkgerrors.Wrapf(err, "running installer %s", handoff.Path)
	}
	return nil
}
