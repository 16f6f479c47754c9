package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mrsinham/dicomtree/cmd/dicomtree/tui"
	"github.com/mrsinham/dicomtree/internal/metrics"
	"github.com/mrsinham/dicomtree/internal/scan"
	"github.com/spf13/cobra"
)

// errCancelled is returned when a scan was stopped before it finished.
var errCancelled = errors.New("scan cancelled")

// scanFlags are shared by every command that needs a collection.
type scanFlags struct {
	interactive bool
	quiet       bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	f.registerInteractive(cmd)
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress progress output")
}

func (f *scanFlags) registerInteractive(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Show an interactive progress screen")
}

func newScanCmd(a *app) *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a directory and print a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.scan(cmd, args, flags, nil)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), a.root(args), out.Summary)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// root returns the scan root from the arguments or the configuration.
func (a *app) root(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Scan.Root
}

func (a *app) newScanner(progress scan.ProgressFunc, m *metrics.Metrics) *scan.Scanner {
	return scan.New(scan.Options{
		Workers:  a.cfg.Scan.Workers,
		Progress: progress,
		Logger:   a.log,
		Metrics:  m,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// scan runs one scan of the root named by args. A cancelled scan is an error.
func (a *app) scan(cmd *cobra.Command, args []string, flags scanFlags, m *metrics.Metrics) (scan.Outcome, error) {
	root := a.root(args)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var (
		out scan.Outcome
		err error
	)
	if flags.interactive {
		out, err = tui.RunScan(ctx, root, func(ctx context.Context, progress scan.ProgressFunc) (scan.Outcome, error) {
			return a.newScanner(progress, m).Scan(ctx, root)
		})
	} else {
		var progress scan.ProgressFunc
		w := cmd.ErrOrStderr()
		if !flags.quiet {
			progress = func(current, total int) {
				fmt.Fprintf(w, "\r  Progress: %d/%d (%.0f%%)", current, total, float64(current)/float64(total)*100)
				if current == total {
					fmt.Fprintln(w)
				}
			}
		}
		out, err = a.newScanner(progress, m).Scan(ctx, root)
	}
	if err != nil {
		return out, err
	}
	if out.Status == scan.StatusCancelled {
		return out, errCancelled
	}
	return out, nil
}

func printSummary(w io.Writer, root string, s scan.Summary) {
	fmt.Fprintf(w, "✓ Scanned %s in %s\n", root, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Files considered: %s (%s decoded, %s skipped, %s ignored)\n",
		humanize.Comma(int64(s.Considered)), humanize.Comma(int64(s.Decoded)),
		humanize.Comma(int64(s.Skipped)), humanize.Comma(int64(s.Ignored)))
	if s.Duplicates > 0 {
		fmt.Fprintf(w, "  Duplicate instances: %s\n", humanize.Comma(int64(s.Duplicates)))
	}
	fmt.Fprintf(w, "  Patients: %s\n", humanize.Comma(int64(s.Counts.Patients)))
	fmt.Fprintf(w, "  Studies: %s\n", humanize.Comma(int64(s.Counts.Studies)))
	fmt.Fprintf(w, "  Series: %s\n", humanize.Comma(int64(s.Counts.Series)))
	fmt.Fprintf(w, "  Instances: %s\n", humanize.Comma(int64(s.Counts.Instances)))
}
