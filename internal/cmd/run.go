package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luispater/sl2browser/internal/runner"
)

// ErrSuitesFailed is returned when at least one suite did not pass.
var ErrSuitesFailed = errors.New("suites failed")

// Report output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "run PATH [SUITE...]",
		Short: "Run the suites of a YAML file or directory",
		Long: `Loads every *.yaml and *.yml suite of PATH and runs the named suites,
or all of them in name order when none is named.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown output format %q", format)
			}

			library := newLibrary(root.cfg)
			defer func() {
				if err := library.Close(); err != nil {
					log.Debugf("Error closing keyword library: %v", err)
				}
			}()

			manager := runner.NewRunnerManager(library)
			if err := manager.LoadSuites(args[0]); err != nil {
				return err
			}
			names := args[1:]
			if len(names) == 0 {
				names = manager.Suites()
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go interruptSuites(ctx, sigChan, manager, cancel)
			return runSuites(ctx, manager, names, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "report format: text, json or yaml")
	return cmd
}

// interruptSuites aborts the running suite on the first signal, which lets
// the current keyword and the teardown finish, and cancels on the second.
func interruptSuites(ctx context.Context, signals <-chan os.Signal, manager *runner.RunnerManager, cancel context.CancelFunc) {
	select {
	case <-signals:
		log.Info("Interrupted, aborting suite after the current step. Interrupt again to stop now.")
		manager.Abort()
	case <-ctx.Done():
		return
	}
	select {
	case <-signals:
		log.Info("Interrupted again, stopping.")
		cancel()
	case <-ctx.Done():
	}
}

// runSuites runs names in order and writes one report per suite. Every suite
// runs even when an earlier one fails, an aborted suite ends the run.
func runSuites(ctx context.Context, manager *runner.RunnerManager, names []string, format string, out io.Writer) error {
	failed := 0
	for _, name := range names {
		report, err := manager.Run(ctx, name)
		if report == nil {
			return err
		}
		if err != nil {
			failed++
			log.Debugf("suite %s failed: %v", name, err)
		}
		if errWrite := writeReport(out, report, format); errWrite != nil {
			return errWrite
		}
		if ctx.Err() != nil || errors.Is(err, runner.ErrAborted) {
			break
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrSuitesFailed, failed, len(names))
	}
	return nil
}

func writeReport(out io.Writer, report *runner.Report, format string) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "---\n%s", data)
		return err
	}

	fmt.Fprintf(out, "Suite %s: %s\n", report.Suite, report.Status)
	for _, step := range report.Steps {
		fmt.Fprintf(out, "  [%s] %d %s %v (%s)\n", step.Status, step.Index, step.Keyword, step.Args, step.Elapsed)
		if step.Error != "" {
			fmt.Fprintf(out, "        %s\n", step.Error)
		}
	}
	if report.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", report.Error)
	}
	return nil
}
