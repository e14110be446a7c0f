package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vk/tracegrid/internal/app"
	"github.com/vk/tracegrid/internal/cli"
	"github.com/vk/tracegrid/internal/module"
)

// main is the entrypoint for the tracegrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:], app.DefaultCatalog()); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. It blocks until ctx ends once the boot has completed.
func run(ctx context.Context, outW io.Writer, args []string, catalog *module.Catalog) (err error) {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
	}

	// Providers panic on programming errors such as registering outside
	// prepare or start; report those as a clean startup failure.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	tracegrid, err := app.NewApp(outW, opts.App, catalog)
	if err != nil {
		return err
	}

	if opts.Check {
		order, err := tracegrid.Check()
		if err != nil {
			return err
		}
		fmt.Fprintln(outW, order.String())
		return nil
	}

	return tracegrid.Run(ctx)
}
