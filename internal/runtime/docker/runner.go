package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/xyproto/flapcheck/internal/domain/harness"
	"github.com/xyproto/flapcheck/internal/ports"
)

const artifactFilename = "program"

// Config describes how to create a sandboxed Runner.
type Config struct {
	// Image is the container image the artifacts run in. It must provide
	// a libc compatible with the compiler's output.
	Image string
	// Workdir is where the artifact is placed inside the container.
	Workdir string
	// TimeLimit caps each run's wall clock. Zero means no limit.
	TimeLimit time.Duration
}

// Runner executes compiled artifacts inside throwaway Docker containers,
// one container per run.
type Runner struct {
	cli      dockerClient
	cfg      Config
	pullOnce sync.Once
	pullErr  error
}

// ensure Runner implements ports.Runner.
var _ ports.Runner = (*Runner)(nil)

// New creates a sandboxed Runner using the Docker daemon from the
// environment.
func New(cfg Config) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return newWithClient(cli, cfg)
}

func newWithClient(cli dockerClient, cfg Config) (*Runner, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("sandbox image must be configured")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "/tmp"
	}
	if cfg.TimeLimit < 0 {
		cfg.TimeLimit = 0
	}

	return &Runner{cli: cli, cfg: cfg}, nil
}

// Close releases the underlying Docker client resources.
func (r *Runner) Close() error {
	if r.cli == nil {
		return nil
	}
	return r.cli.Close()
}

// Run copies the artifact into a fresh container, executes it under the
// configured time limit, and captures exit code and both output streams.
// The container is force-removed whatever happens.
func (r *Runner) Run(ctx context.Context, artifactPath string) (*harness.Outcome, error) {
	if err := r.ensureImage(ctx); err != nil {
		return nil, err
	}

	binary, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", artifactPath, err)
	}

	containerID, cleanup, err := r.createContainer(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := r.copyArtifact(ctx, containerID, binary); err != nil {
		return nil, fmt.Errorf("copy artifact: %w", err)
	}

	start := time.Now()
	if err := r.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	waitCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.TimeLimit > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, r.cfg.TimeLimit)
	}
	status, err := r.waitForExit(waitCtx, containerID)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && r.cfg.TimeLimit > 0 && ctx.Err() == nil {
			return r.handleTimeLimit(containerID, start)
		}
		return nil, err
	}

	stdout, stderr, err := r.fetchLogs(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	return &harness.Outcome{
		ExitCode: int(status.StatusCode),
		Stdout:   stdout,
		Stderr:   stderr,
		Duration: time.Since(start),
	}, nil
}

func (r *Runner) ensureImage(ctx context.Context) error {
	r.pullOnce.Do(func() {
		reader, err := r.cli.ImagePull(ctx, r.cfg.Image, image.PullOptions{})
		if err != nil {
			r.pullErr = fmt.Errorf("pull image %s: %w", r.cfg.Image, err)
			return
		}
		defer reader.Close()
		if _, err := io.Copy(io.Discard, reader); err != nil {
			r.pullErr = fmt.Errorf("consume pull output: %w", err)
		}
	})
	return r.pullErr
}

func (r *Runner) createContainer(ctx context.Context) (string, func(), error) {
	resp, err := r.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:        r.cfg.Image,
			Cmd:          []string{"./" + artifactFilename},
			AttachStdout: true,
			AttachStderr: true,
			WorkingDir:   r.cfg.Workdir,
		},
		&container.HostConfig{
			Resources: container.Resources{
				NanoCPUs: 1_000_000_000,
			},
		},
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", nil, fmt.Errorf("create container: %w", err)
	}

	cleanup := func() {
		_ = r.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}

	return resp.ID, cleanup, nil
}

func (r *Runner) copyArtifact(ctx context.Context, containerID string, binary []byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	header := &tar.Header{
		Name:    artifactFilename,
		Mode:    0o755,
		Size:    int64(len(binary)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}
	if _, err := tw.Write(binary); err != nil {
		return fmt.Errorf("write tar contents: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}

	return r.cli.CopyToContainer(ctx, containerID, r.cfg.Workdir, bytes.NewReader(buf.Bytes()), container.CopyToContainerOptions{AllowOverwriteDirWithFile: true})
}

func (r *Runner) handleTimeLimit(containerID string, start time.Time) (*harness.Outcome, error) {
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()

	if err := r.cli.ContainerStop(stopCtx, containerID, container.StopOptions{}); err != nil && !client.IsErrNotFound(err) {
		return nil, fmt.Errorf("stop container after time limit: %w", err)
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWait()

	if _, err := r.waitForExit(waitCtx, containerID); err != nil && !errors.Is(err, context.DeadlineExceeded) && !client.IsErrNotFound(err) {
		return nil, fmt.Errorf("wait for container after time limit: %w", err)
	}

	stdout, stderr, err := r.fetchLogs(context.Background(), containerID)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	return &harness.Outcome{
		ExitCode: -1,
		Stdout:   stdout,
		Stderr:   stderr,
		TimedOut: true,
		Duration: time.Since(start),
	}, nil
}

func (r *Runner) waitForExit(ctx context.Context, containerID string) (*container.WaitResponse, error) {
	statusCh, errCh := r.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return nil, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return &status, nil
	case err := <-errCh:
		return nil, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for container: %w", ctx.Err())
	}
}

func (r *Runner) fetchLogs(ctx context.Context, containerID string) (stdout, stderr []byte, err error) {
	logCtx := ctx
	if logCtx.Err() != nil {
		logCtx = context.Background()
	}

	logs, err := r.cli.ContainerLogs(logCtx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, nil, err
	}
	defer logs.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, logs); err != nil {
		return nil, nil, err
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), nil
}
