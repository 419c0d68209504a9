// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs one-shot containers through the docker or podman
// CLI. The container render backend uses it to run wkhtmltopdf without a
// local install.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

const (
	Docker = "docker"
	Podman = "podman"
)

// RunSpec describes one container invocation.
type RunSpec struct {
	Image string
	Args  []string

	// Stdin is attached with -i when non-nil.
	Stdin io.Reader

	// Env is passed as -e KEY=VALUE, sorted by key.
	Env map[string]string
}

// Runtime is a container engine reachable through its CLI.
type Runtime interface {
	// Name returns the binary name ("docker" or "podman").
	Name() string

	// Available reports whether the binary is on PATH and its daemon or
	// service answers an info request.
	Available() bool

	// ImageExists returns nil when image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Pull fetches image from its registry.
	Pull(ctx context.Context, image string) error

	// Run starts a container from spec, removes it on exit, and copies its
	// stdout to stdout. The container is killed when ctx is done.
	Run(ctx context.Context, spec RunSpec, stdout io.Writer) error
}

// executor runs a command, feeding stdin and capturing stdout. Tests swap
// in a fake.
type executor interface {
	LookPath(file string) (string, error)
	Exec(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Exec(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// engine implements Runtime for one CLI. Docker and podman take the same
// run and pull arguments; only the image probe differs.
type engine struct {
	bin        string
	imageProbe []string
	exec       executor
}

func newEngine(bin string, exec executor) *engine {
	probe := []string{"image", "inspect"}
	if bin == Podman {
		probe = []string{"image", "exists"}
	}
	return &engine{bin: bin, imageProbe: probe, exec: exec}
}

func (e *engine) Name() string { return e.bin }

func (e *engine) Available() bool {
	if _, err := e.exec.LookPath(e.bin); err != nil {
		return false
	}
	return e.exec.Exec(context.Background(), e.bin, []string{"info"}, nil, io.Discard) == nil
}

func (e *engine) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, e.imageProbe...), image)
	if err := e.exec.Exec(ctx, e.bin, args, nil, io.Discard); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Pull(ctx context.Context, image string) error {
	if err := e.exec.Exec(ctx, e.bin, []string{"pull", "--quiet", image}, nil, io.Discard); err != nil {
		return fmt.Errorf("pulling %s with %s: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Run(ctx context.Context, spec RunSpec, stdout io.Writer) error {
	if err := e.exec.Exec(ctx, e.bin, runArgs(spec), spec.Stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", e.bin, spec.Image, err)
	}
	return nil
}

// runArgs builds `run --rm [-i] [-e K=V]... image args...`.
func runArgs(spec RunSpec) []string {
	args := []string{"run", "--rm"}
	if spec.Stdin != nil {
		args = append(args, "-i")
	}
	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+spec.Env[k])
	}
	args = append(args, spec.Image)
	return append(args, spec.Args...)
}

// Detect returns the preferred runtime when it is usable. An empty
// preference tries docker, then podman.
func Detect(preferred string) (Runtime, error) {
	return detect(preferred, osExecutor{})
}

func detect(preferred string, exec executor) (Runtime, error) {
	candidates := []string{Docker, Podman}
	switch preferred {
	case "":
	case Docker, Podman:
		candidates = []string{preferred}
	default:
		return nil, fmt.Errorf("unknown container runtime %q (want %s or %s)", preferred, Docker, Podman)
	}

	for _, bin := range candidates {
		if e := newEngine(bin, exec); e.Available() {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(candidates, ", "))
}
