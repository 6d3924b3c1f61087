// Package runner executes external commands with captured output, an
// inherited login-shell environment, and non-zero-exit-as-error semantics.
// It is the one place in the engine that shells out; every other component
// (internal/vcs, internal/credential) is built on top of it.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Result carries the captured output of a completed command.
type Result struct {
	Stdout string
	Stderr string
}

// ExitError is returned when a command exits non-zero. It carries the
// captured stderr so callers (and their error chains) can surface it to the
// learner without re-running the command.
type ExitError struct {
	Argv   []string
	Dir    string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return errors.Wrapf(e.Err, "run %q in %s", strings.Join(e.Argv, " "), e.Dir).Error()
	}
	return errors.Wrapf(e.Err, "run %q in %s: %s", strings.Join(e.Argv, " "), e.Dir, stderr).Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

var (
	envOnce sync.Once
	loginEnv []string
	envErr   error
)

// loginShellEnv resolves the environment of an interactive login shell,
// memoized for the lifetime of the process. It never runs the resolution
// more than once, matching the spec's "process-wide state" requirement for
// the environment snapshot.
func loginShellEnv() ([]string, error) {
	envOnce.Do(func() {
		shell := firstNonEmpty(os.Getenv("SHELL"), "/bin/sh")
		cmd := exec.Command(shell, "-lc", "env")
		out, err := cmd.Output()
		if err != nil {
			envErr = errors.Wrapf(err, "resolve login shell environment via %s", shell)
			return
		}
		lines := strings.Split(string(out), "\n")
		env := make([]string, 0, len(lines))
		for _, line := range lines {
			if line == "" {
				continue
			}
			env = append(env, line)
		}
		loginEnv = env
	})
	return loginEnv, envErr
}

// Run executes argv[0] with argv[1:] under dir, returning captured stdout
// and stderr. A non-zero exit produces an *ExitError.
func Run(ctx context.Context, dir string, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("runner.Run: empty argv")
	}
	env, err := loginShellEnv()
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	logrus.WithFields(logrus.Fields{
		"component": "runner",
		"argv":      strings.Join(argv, " "),
		"dir":       dir,
		"duration":  time.Since(start),
	}).Debug("ran command")

	if runErr != nil {
		return Result{Stdout: stdout.String(), Stderr: stderr.String()}, &ExitError{
			Argv:   argv,
			Dir:    dir,
			Stderr: stderr.String(),
			Err:    runErr,
		}
	}
	return Result{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// Void runs argv and discards stdout, returning only an error.
func Void(ctx context.Context, dir string, argv ...string) error {
	_, err := Run(ctx, dir, argv...)
	return err
}

// Capture runs argv and returns trimmed stdout as text.
func Capture(ctx context.Context, dir string, argv ...string) (string, error) {
	res, err := Run(ctx, dir, argv...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
