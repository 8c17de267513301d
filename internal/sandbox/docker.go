package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/creack/pty"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/ma4z/Hydrenix-Node/internal/shared/id"
)

// Options configures a DockerRuntime.
type Options struct {
	// Command is the container CLI to invoke (docker or podman).
	Command      string
	Image        string
	NamePrefix   string
	Privileged   bool
	Capabilities []string
	// AgentCommand is run inside the sandbox to start the terminal-sharing agent.
	AgentCommand []string
}

// DockerRuntime provisions sandboxes and launches agents through the docker CLI.
type DockerRuntime struct {
	opts   Options
	logger *zap.Logger
}

// NewDockerRuntime checks that the CLI is on PATH and returns a runtime.
func NewDockerRuntime(opts Options, logger *zap.Logger) (*DockerRuntime, error) {
	if opts.Command == "" {
		opts.Command = "docker"
	}
	if opts.Image == "" {
		return nil, fmt.Errorf("sandbox image must be set")
	}
	if len(opts.AgentCommand) == 0 {
		return nil, fmt.Errorf("agent command must be set")
	}
	if _, err := exec.LookPath(opts.Command); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", opts.Command, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DockerRuntime{opts: opts, logger: logger}, nil
}

// commandLine renders an invocation the way it could be pasted into a shell.
func (r *DockerRuntime) commandLine(args []string) string {
	return shellquote.Join(append([]string{r.opts.Command}, args...)...)
}

// Name returns the CLI this runtime drives.
func (r *DockerRuntime) Name() string {
	return r.opts.Command
}

func (r *DockerRuntime) runCmd(ctx context.Context, args ...string) (string, error) {
	r.logger.Debug("exec", zap.String("cmd", r.commandLine(args)))
	cmd := exec.CommandContext(ctx, r.opts.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s %s failed: %s: %w", r.opts.Command, args[0], msg, err)
		}
		return "", fmt.Errorf("%s %s failed: %w", r.opts.Command, args[0], err)
	}

	return stdout.String(), nil
}

func (r *DockerRuntime) runArgs(name string, limits Limits) []string {
	args := []string{"run", "-d", "--name", name}
	if r.opts.Privileged {
		args = append(args, "--privileged")
	}
	for _, capability := range r.opts.Capabilities {
		args = append(args, "--cap-add", capability)
	}
	args = append(args,
		"--memory", limits.Memory,
		"--cpus", strconv.FormatFloat(limits.CPUs, 'f', -1, 64),
		r.opts.Image,
		"sleep", "infinity",
	)
	return args
}

// Create starts a detached, resource-capped sandbox and returns its
// container ID. A failed run leaves nothing behind: the named container is
// force-removed before the error is returned.
func (r *DockerRuntime) Create(ctx context.Context, limits Limits) (Handle, error) {
	name := string(id.NewSandboxName(r.opts.NamePrefix))
	r.logger.Debug("creating sandbox",
		zap.String("name", name),
		zap.String("image", r.opts.Image),
		zap.String("memory", limits.Memory),
		zap.Float64("cpus", limits.CPUs),
	)

	out, err := r.runCmd(ctx, r.runArgs(name, limits)...)
	if err != nil {
		r.discard(ctx, name)
		return "", fmt.Errorf("create sandbox %s: %w", name, err)
	}

	handle := Handle(strings.TrimSpace(out))
	if handle == "" {
		r.discard(ctx, name)
		return "", fmt.Errorf("create sandbox %s: runtime returned no container id", name)
	}

	r.logger.Info("sandbox created", zap.String("name", name), zap.String("handle", handle.String()))
	return handle, nil
}

// discard force-removes a container that failed to start.
func (r *DockerRuntime) discard(ctx context.Context, name string) {
	if _, err := r.runCmd(context.WithoutCancel(ctx), "rm", "-f", name); err != nil {
		r.logger.Debug("discard after failed create", zap.String("name", name), zap.Error(err))
	}
}

// Destroy stops and removes a sandbox. Failures are logged, never returned.
func (r *DockerRuntime) Destroy(ctx context.Context, handle Handle) {
	if _, err := r.runCmd(ctx, "stop", handle.String()); err != nil {
		r.logger.Debug("stop sandbox", zap.String("handle", handle.String()), zap.Error(err))
	}
	if _, err := r.runCmd(ctx, "rm", "-f", handle.String()); err != nil {
		r.logger.Warn("remove sandbox", zap.String("handle", handle.String()), zap.Error(err))
		return
	}
	r.logger.Info("sandbox destroyed", zap.String("handle", handle.String()))
}

// IsRunning reports whether the sandbox exists and is running.
func (r *DockerRuntime) IsRunning(ctx context.Context, handle Handle) bool {
	out, err := r.runCmd(ctx, "inspect", "-f", "{{.State.Running}}", handle.String())
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// Launch starts the agent inside the sandbox on a pseudo-terminal, so the
// returned stream carries both its stdout and stderr. The exec process is not
// bound to ctx: the agent must keep running after the request returns, and
// it ends when the sandbox is destroyed.
func (r *DockerRuntime) Launch(ctx context.Context, handle Handle) (Stream, error) {
	if !r.IsRunning(ctx, handle) {
		return nil, fmt.Errorf("launch agent: sandbox %s is not running", handle)
	}

	args := append([]string{"exec", "-t", handle.String()}, r.opts.AgentCommand...)
	cmd := exec.Command(r.opts.Command, args...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("launch agent in %s: %w", handle, err)
	}

	r.logger.Debug("agent started",
		zap.String("handle", handle.String()),
		zap.String("cmd", r.commandLine(args)),
		zap.Int("pid", cmd.Process.Pid),
	)

	stream := newAgentStream(ptmx)
	go func() {
		err := cmd.Wait()
		r.logger.Debug("agent exited", zap.String("handle", handle.String()), zap.Error(err))
	}()
	return stream, nil
}
