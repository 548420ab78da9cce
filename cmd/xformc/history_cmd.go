package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/loopweave/xform/internal/history"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("xformc history", flag.ExitOnError)
	historyPath := fs.String("history-db", defaultHistoryPath(), "run history database")
	n := fs.Int("n", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := history.Open(*historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(*n)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range runs {
		status := "ok"
		if r.FatalCode != "" {
			status = r.FatalCode
		} else if r.ErrorCount > 0 {
			status = "errors"
		}
		fmt.Fprintf(os.Stdout, "%s  %-8s  %-40s  %s  %d error(s), %d warning(s)\n",
			r.ID, status, r.InputPath, humanize.Time(r.StartedAt), r.ErrorCount, r.WarnCount)
	}
	return nil
}
