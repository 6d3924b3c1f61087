// Package credential resolves the bearer token the engine uses to talk to
// the hosting API: first a dotfile, then the platform CLI as a fallback.
package credential

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/engineerr"
	"github.com/repoquest/rqst/internal/runner"
)

// tokenFileName is looked up under the user's home directory.
const tokenFileName = ".rqst-token"

// Resolve returns the learner's credential, trying ~/.rqst-token first and
// falling back to `gh auth token` through the Process Runner. It returns
// engineerr.ErrCredentialNotFound (wrapped) when neither source yields a
// token; any other failure is a genuine error.
func Resolve(ctx context.Context) (string, error) {
	if token, ok, err := fromFile(); err != nil {
		return "", err
	} else if ok {
		return token, nil
	}

	token, err := fromGH(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.Wrap(engineerr.ErrCredentialNotFound, "credential: resolve")
	}
	return token, nil
}

func fromFile() (string, bool, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "credential: resolve home directory")
	}
	data, err := os.ReadFile(filepath.Join(home, tokenFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "credential: read ~/.rqst-token")
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// fromGH treats gh's non-zero exit — the signal that the user has never run
// `gh auth login` — as absence. Any other failure (gh missing from PATH, the
// context expiring mid-run) is reported rather than swallowed.
func fromGH(ctx context.Context) (string, error) {
	out, err := runner.Capture(ctx, "", "gh", "auth", "token")
	if err != nil {
		if isUnauthenticated(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "credential: run gh auth token")
	}
	return strings.TrimSpace(out), nil
}

// isUnauthenticated reports whether err is the *runner.ExitError produced by
// gh actually running and exiting non-zero, as opposed to never running at
// all (binary missing, context cancelled).
func isUnauthenticated(err error) bool {
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	var cmdExit *exec.ExitError
	return errors.As(exitErr.Err, &cmdExit)
}
