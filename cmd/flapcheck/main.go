package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/xyproto/flapcheck/internal/app/suite"
	"github.com/xyproto/flapcheck/internal/fixture"
	"github.com/xyproto/flapcheck/internal/infra/process"
	"github.com/xyproto/flapcheck/internal/logging"
	"github.com/xyproto/flapcheck/internal/ports"
	"github.com/xyproto/flapcheck/internal/report"
	"github.com/xyproto/flapcheck/internal/runtime/docker"
)

// CLI declares the command-line surface.
type CLI struct {
	Dir           string        `help:"Directory containing fixture pairs." default:"testprograms" type:"path"`
	Compiler      string        `help:"Path to the compiler binary (default: flapc next to the fixture directory)."`
	Timeout       time.Duration `help:"Wall-clock bound for each compiled program." default:"2s"`
	Jobs          int           `help:"Number of tests to run in parallel." default:"1"`
	ArtifactDir   string        `help:"Directory for compiled binaries (default: a fresh per-run temp dir)." type:"path"`
	KeepArtifacts bool          `help:"Keep compiled binaries after the run."`
	SandboxImage  string        `help:"Run compiled programs inside a Docker container of this image."`
	Debug         bool          `help:"Enable debug logging to file." short:"d" env:"FLAPCHECK_DEBUG"`
	DebugFile     string        `help:"Custom path for the debug log file." env:"FLAPCHECK_DEBUG_FILE"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("flapcheck"),
		kong.Description("Regression-test harness for the flapc compiler."),
	)

	os.Exit(run(&cli))
}

func run(cli *CLI) int {
	if err := logging.Initialize(cli.Debug, cli.DebugFile); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cases, err := fixture.Scan(cli.Dir)
	if err != nil {
		log.Fatalf("failed to discover tests: %v", err)
	}
	if len(cases) == 0 {
		fmt.Printf("no fixture pairs found in %s\n", cli.Dir)
		return 0
	}

	compiler, err := process.NewCompiler(resolveCompilerPath(cli.Dir, cli.Compiler))
	if err != nil {
		log.Fatalf("failed to initialize compile driver: %v", err)
	}

	runner, err := buildRunner(cli)
	if err != nil {
		log.Fatalf("failed to initialize execution driver: %v", err)
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			log.Printf("warning: failed to close execution driver: %v", cerr)
		}
	}()

	artifactDir := cli.ArtifactDir
	if artifactDir == "" {
		artifactDir = defaultArtifactDir()
	}
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		log.Fatalf("failed to create artifact directory: %v", err)
	}
	if !cli.KeepArtifacts {
		defer func() {
			if rerr := os.RemoveAll(artifactDir); rerr != nil {
				log.Printf("warning: failed to remove artifacts: %v", rerr)
			}
		}()
	}

	console := report.NewConsole(os.Stdout)
	service := suite.NewService(compiler, runner)

	summary, err := service.Run(ctx, cases, suite.Options{
		ArtifactDir: artifactDir,
		Jobs:        cli.Jobs,
	}, console.Report)
	if err != nil {
		log.Printf("warning: %v", err)
	}

	console.PrintSummary(summary)

	if !summary.AllPassed() || err != nil {
		return 1
	}
	return 0
}

func buildRunner(cli *CLI) (ports.Runner, error) {
	if cli.SandboxImage != "" {
		return docker.New(docker.Config{
			Image:     cli.SandboxImage,
			TimeLimit: cli.Timeout,
		})
	}
	return process.NewRunner(cli.Timeout), nil
}

// resolveCompilerPath defaults to the compiler sitting next to the fixture
// directory, matching the suite's historical layout.
func resolveCompilerPath(dir, compiler string) string {
	if compiler != "" {
		return compiler
	}
	return filepath.Join(dir, "..", "flapc")
}

func defaultArtifactDir() string {
	return filepath.Join(os.TempDir(), "flapcheck-"+uuid.New().String())
}
