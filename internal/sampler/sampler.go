// Package sampler reports what the user is doing at a fixed interval and
// feeds the observations into the tracker.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoActivity is returned when the sampler observed nothing, e.g. the
// screen is locked or the command printed nothing.
var ErrNoActivity = errors.New("no activity observed")

// Sampler reports the name of the application currently in use.
type Sampler interface {
	Sample(ctx context.Context) (string, error)
}

// StaticSampler always reports the same application name.
type StaticSampler struct {
	Name string
}

func (s StaticSampler) Sample(context.Context) (string, error) {
	return s.Name, nil
}

// CommandSampler runs a shell command and uses its first output line as
// the application name, e.g. "xdotool getactivewindow getwindowname".
type CommandSampler struct {
	Command string
}

// NewCommandSampler returns a sampler for command.
func NewCommandSampler(command string) *CommandSampler {
	return &CommandSampler{Command: command}
}

func (c *CommandSampler) Sample(ctx context.Context) (string, error) {
	out, err := shellCmd(ctx, c.Command).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("sampler %q: %s: %w", c.Command, strings.TrimSpace(string(exitErr.Stderr)), ErrNoActivity)
		}
		return "", fmt.Errorf("sampler %q: %w", c.Command, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return "", ErrNoActivity
	}
	return line, nil
}

func shellCmd(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// New returns a CommandSampler when command is set, otherwise a
// StaticSampler reporting appName.
func New(command, appName string) Sampler {
	if strings.TrimSpace(command) != "" {
		return NewCommandSampler(command)
	}
	return StaticSampler{Name: appName}
}
