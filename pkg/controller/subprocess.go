package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/server"
)

// ExitCodeBind is the exit status of "mockapp serve" when the listener
// cannot be bound.
const ExitCodeBind = 3

var errChildBind = errors.New("mock server process could not bind")

// Subprocess runs the server as a child process of a mockapp binary.
//
// The child is started as "<Binary> <Args...> serve --host H --port P
// --routes <file> --ready-file <file>" with MOCKAPP_CHILD=1 in its
// environment. It writes its bound address to the ready file once listening.
type Subprocess struct {
	// Binary is the mockapp executable. Empty means the running executable.
	Binary string

	// Args are inserted before the serve command.
	Args []string

	// Env is appended to the inherited environment.
	Env []string

	Stdout io.Writer
	Stderr io.Writer
}

// Name implements Executor.
func (p *Subprocess) Name() string { return "subprocess" }

// Spawn implements Executor.
func (p *Subprocess) Spawn(ctx context.Context, srv *server.Server) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bin := p.Binary
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		bin = exe
	}

	dir, err := os.MkdirTemp("", "mockapp-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	routesPath := filepath.Join(dir, "routes.json")
	readyPath := filepath.Join(dir, "ready")

	if err := config.WriteRoutesFile(routesPath, routeEntries(srv)); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	args := slices.Clone(p.Args)
	args = append(args, "serve",
		"--host", srv.Host(),
		"--port", strconv.Itoa(srv.Port()),
		"--routes", routesPath,
		"--ready-file", readyPath,
	)

	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), config.EnvChild+"=1")
	cmd.Env = append(cmd.Env, p.Env...)
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to start mock server process: %w", err)
	}

	h := &subprocessHandle{
		cmd:       cmd,
		readyPath: readyPath,
		done:      make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.err = childExitError(srv.Addr(), err)
		h.mu.Unlock()
		_ = os.RemoveAll(dir)
		close(h.done)
	}()
	return h, nil
}

func routeEntries(srv *server.Server) []config.RouteEntry {
	table := srv.Routes()
	paths := table.Paths()
	entries := make([]config.RouteEntry, 0, len(paths))
	for _, path := range paths {
		body, _ := table.Lookup(path)
		entries = append(entries, config.RouteEntry{Path: path, Response: body})
	}
	return entries
}

func childExitError(addr string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == ExitCodeBind {
		return &server.BindError{Addr: addr, Err: errChildBind}
	}
	return err
}

type subprocessHandle struct {
	cmd       *exec.Cmd
	readyPath string
	done      chan struct{}

	mu  sync.Mutex
	err error
}

func (h *subprocessHandle) Addr() string {
	data, err := os.ReadFile(h.readyPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (h *subprocessHandle) Done() <-chan struct{} { return h.done }

func (h *subprocessHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *subprocessHandle) Kill() error {
	select {
	case <-h.done:
		return nil
	default:
	}
	return killProcessGroup(h.cmd.Process)
}
