package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/loopweave/xform/internal/config"
	"github.com/loopweave/xform/internal/diagnostics"
	"github.com/loopweave/xform/internal/history"
	"github.com/loopweave/xform/internal/ir"
	"github.com/loopweave/xform/internal/transform"
	"github.com/loopweave/xform/internal/transform/rules"
)

// runIDKey carries the run id into the context passed to Engine.Run, so a
// future diagnostic consumer can attribute a mid-run failure to the run that
// produced it without threading an extra parameter through every call.
type runIDKey struct{}

func run(args []string) error {
	fs := flag.NewFlagSet("xformc", flag.ExitOnError)
	configPath := fs.String("config", "xform.yaml", "root configuration document")
	extPath := fs.String("ext", "", "extension configuration document (optional)")
	outPath := fs.String("o", "", "write the transformed IR here (default: stdout)")
	historyPath := fs.String("history-db", defaultHistoryPath(), "run history database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: xformc [flags] <ir.json>")
	}
	inputPath := fs.Arg(0)

	started := time.Now()
	runID := uuid.NewString()

	root, err := config.LoadRoot(*configPath)
	if err != nil {
		return err
	}
	if *extPath != "" {
		ext, err := config.LoadExtension(*extPath)
		if err != nil {
			return err
		}
		root = config.Merge(root, ext)
	}

	registry := rules.Registry()
	engine := transform.NewEngine(root, registry)

	if diags := config.Validate(root, engine.KnownClasses()); len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, colorize(d))
		}
		return fmt.Errorf("configuration invalid (%d problem(s))", len(diags))
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	prog, err := ir.DecodeProgram(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inputPath, err)
	}

	engine.ScanProgram(prog)
	tctx := &transform.Context{Program: prog, Engine: engine}

	gctx := context.WithValue(context.Background(), runIDKey{}, runID)
	runErr := engine.Run(gctx, tctx)
	duration := time.Since(started)

	for _, d := range prog.Warnings {
		fmt.Fprintln(os.Stderr, colorize(d))
	}
	for _, d := range prog.Errors {
		fmt.Fprintln(os.Stderr, colorize(d))
	}

	fatalCode := ""
	if runErr != nil {
		fatalCode = "TRANSFORM_FATAL"
		fmt.Fprintln(os.Stderr, "xformc: fatal:", runErr)
	}

	recordRun(*historyPath, history.Run{
		ID:         runID,
		InputPath:  inputPath,
		StartedAt:  started,
		Duration:   duration,
		ErrorCount: len(prog.Errors),
		WarnCount:  len(prog.Warnings),
		FatalCode:  fatalCode,
	})

	fmt.Fprintf(os.Stderr, "xformc: run %s finished in %s, %s error(s), %s warning(s)\n",
		runID, duration.Round(time.Millisecond), humanize.Comma(int64(len(prog.Errors))), humanize.Comma(int64(len(prog.Warnings))))

	if runErr != nil || len(prog.Errors) > 0 {
		return fmt.Errorf("run %s failed", runID)
	}

	out, err := ir.EncodeProgram(prog)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(*outPath, out, 0o644)
}

func recordRun(path string, r history.Run) {
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "xformc: could not open history store:", err)
		return
	}
	defer store.Close()
	if err := store.Record(r); err != nil {
		fmt.Fprintln(os.Stderr, "xformc: could not record run:", err)
	}
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "xformc-history.db"
	}
	return filepath.Join(dir, "xformc", "history.db")
}

// colorize renders a diagnostic in red/yellow when stdout is a terminal,
// plain otherwise.
func colorize(d *diagnostics.Diagnostic) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return d.Error()
	}
	const (
		red    = "\x1b[31m"
		yellow = "\x1b[33m"
		reset  = "\x1b[0m"
	)
	color := red
	if d.Severity == diagnostics.SeverityWarning {
		color = yellow
	}
	return color + d.Error() + reset
}
