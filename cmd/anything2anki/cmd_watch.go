package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   `watch INPUT "learning description"`,
	Short: "Regenerate the deck whenever the input file changes",
	Long: `Runs generate once, then watches the input file and reruns after every save.
Rapid successive writes (editors often emit several per save) are debounced
into a single run. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

// watchDebounce batches the burst of events an editor emits per save.
const watchDebounce = 500 * time.Millisecond

func init() {
	addRunFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := resolveRunOptions(cmd, args)
	if err != nil {
		return err
	}
	// The inline spinner assumes it owns the terminal until the run ends;
	// a long-lived watch loop prints run summaries instead.
	opts.noProgress = true

	absInput, err := filepath.Abs(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory, not the file: editors that save via
	// rename swap the inode a file-level watch would be pinned to.
	if err := watcher.Add(filepath.Dir(absInput)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absInput), err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	runTimeout := timeout
	if runTimeout <= 0 {
		runTimeout = cfg.GetTimeout()
	}

	out := cmd.OutOrStdout()
	runOnce := func() {
		runCtx, cancelRun := context.WithTimeout(ctx, runTimeout)
		defer cancelRun()
		if err := executeRun(runCtx, out, opts); err != nil {
			logger.Error("run failed", zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "run failed: %v\n", err)
		}
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", opts.inputPath)
	runOnce()

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absInput {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("input changed", zap.String("op", event.Op.String()))
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))

		case <-debounce.C:
			fmt.Fprintf(out, "\n%s changed, regenerating...\n", opts.inputPath)
			runOnce()
		}
	}
}
