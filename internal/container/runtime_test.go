// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeExec succeeds for binaries in onPath and command lines in ok, and
// hands `run` invocations to runFunc.
type fakeExec struct {
	onPath  map[string]bool
	ok      map[string]bool
	runFunc func(args []string, stdin io.Reader, stdout io.Writer) error
	calls   []string
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExec) Exec(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if len(args) > 0 && args[0] == "run" {
		if f.runFunc != nil {
			return f.runFunc(args, stdin, stdout)
		}
		return nil
	}
	if f.ok[line] {
		return nil
	}
	return errors.New("exit status 1")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		exec      *fakeExec
		want      string
		wantErr   string
	}{
		{
			name: "docker available",
			exec: &fakeExec{onPath: map[string]bool{"docker": true}, ok: map[string]bool{"docker info": true}},
			want: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &fakeExec{onPath: map[string]bool{"podman": true}, ok: map[string]bool{"podman info": true}},
			want: "podman",
		},
		{
			name: "docker on PATH but daemon down",
			exec: &fakeExec{onPath: map[string]bool{"docker": true, "podman": true}, ok: map[string]bool{"podman info": true}},
			want: "podman",
		},
		{
			name:      "preference honored",
			preferred: "podman",
			exec: &fakeExec{
				onPath: map[string]bool{"docker": true, "podman": true},
				ok:     map[string]bool{"docker info": true, "podman info": true},
			},
			want: "podman",
		},
		{
			name:      "preferred runtime unusable",
			preferred: "podman",
			exec:      &fakeExec{onPath: map[string]bool{"docker": true}, ok: map[string]bool{"docker info": true}},
			wantErr:   "tried podman",
		},
		{
			name:      "unknown preference",
			preferred: "containerd",
			exec:      &fakeExec{},
			wantErr:   "unknown container runtime",
		},
		{
			name:    "neither available",
			exec:    &fakeExec{},
			wantErr: "tried docker, podman",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(tt.preferred, tt.exec)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.want {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.want)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		ok      map[string]bool
		wantErr bool
	}{
		{"docker image present", Docker, map[string]bool{"docker image inspect wkhtmltopdf:latest": true}, false},
		{"docker image missing", Docker, nil, true},
		{"podman image present", Podman, map[string]bool{"podman image exists wkhtmltopdf:latest": true}, false},
		{"podman image missing", Podman, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.bin, &fakeExec{ok: tt.ok})
			err := e.ImageExists(context.Background(), "wkhtmltopdf:latest")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "wkhtmltopdf:latest") {
					t.Fatalf("error = %v, want one naming the image", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPull(t *testing.T) {
	fe := &fakeExec{ok: map[string]bool{"podman pull --quiet wk:1": true}}
	if err := newEngine(Podman, fe).Pull(context.Background(), "wk:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := newEngine(Docker, fe).Pull(context.Background(), "wk:1"); err == nil {
		t.Fatal("expected error for failed pull")
	}
}

func TestRun(t *testing.T) {
	var got []string
	fe := &fakeExec{runFunc: func(args []string, stdin io.Reader, stdout io.Writer) error {
		got = args
		_, err := io.WriteString(stdout, "%PDF-1.4")
		return err
	}}

	var out bytes.Buffer
	err := newEngine(Docker, fe).Run(context.Background(), RunSpec{
		Image: "wkhtmltopdf:latest",
		Args:  []string{"--quiet", "https://www.sec.gov/a.htm", "-"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "%PDF-1.4" {
		t.Errorf("stdout = %q", out.String())
	}
	want := "run --rm wkhtmltopdf:latest --quiet https://www.sec.gov/a.htm -"
	if strings.Join(got, " ") != want {
		t.Errorf("args = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestRunFailure(t *testing.T) {
	fe := &fakeExec{runFunc: func([]string, io.Reader, io.Writer) error {
		return errors.New("exit status 1: Exit with code 1 due to network error: HostNotFoundError")
	}}
	err := newEngine(Podman, fe).Run(context.Background(), RunSpec{Image: "wk:1"}, io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{"podman", "wk:1", "HostNotFoundError"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestRunArgs(t *testing.T) {
	tests := []struct {
		name string
		spec RunSpec
		want string
	}{
		{
			name: "no stdin omits interactive flag",
			spec: RunSpec{Image: "wk:1", Args: []string{"-", "-"}},
			want: "run --rm wk:1 - -",
		},
		{
			name: "stdin adds interactive flag",
			spec: RunSpec{Image: "wk:1", Args: []string{"-", "-"}, Stdin: strings.NewReader("<html/>")},
			want: "run --rm -i wk:1 - -",
		},
		{
			name: "env sorted by key",
			spec: RunSpec{Image: "wk:1", Env: map[string]string{"TZ": "UTC", "LANG": "C.UTF-8"}},
			want: "run --rm -e LANG=C.UTF-8 -e TZ=UTC wk:1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(runArgs(tt.spec), " "); got != tt.want {
				t.Errorf("runArgs = %q, want %q", got, tt.want)
			}
		})
	}
}
