package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/logger"
)

// debounce window for editors that write payload files in several events.
const watchSettle = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [document] [review.json]",
	Short: "Re-resolve a review whenever its payload changes",
	Long: `Watches a review payload file and re-runs a dry-run resolution against
the document every time the payload is written. Useful while iterating on a
review: each save shows which sections still resolve.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	docPath, payloadPath := args[0], args[1]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors that replace the file on save drop the
	// watch if it is attached to the file itself.
	dir := filepath.Dir(payloadPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target, err := filepath.Abs(payloadPath)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (ctrl-c to stop)\n", payloadPath)
	if err := watchResolve(cmd, docPath, payloadPath); err != nil {
		cmd.PrintErrln(err)
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("Payload event: %s", event.Op)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchSettle, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			cmd.Printf("\n%s\n", render(dimStyle, time.Now().Format("15:04:05")))
			if err := watchResolve(cmd, docPath, payloadPath); err != nil {
				cmd.PrintErrln(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				return fmt.Errorf("watch error: %w", err)
			}
			logger.Warn("Watcher event overflow")
		}
	}
}

// watchResolve runs one dry-run resolution pass.
func watchResolve(cmd *cobra.Command, docPath, payloadPath string) error {
	review, err := loadReview(payloadPath)
	if err != nil {
		return err
	}

	host, err := openHost(docPath)
	if err != nil {
		return err
	}
	eng := newEngine(host)

	resolutions, err := eng.review.DryRun(cmd.Context(), review)
	if err != nil {
		return fmt.Errorf("dry run failed: %w", err)
	}

	renderResolutions(cmd, resolutions)
	return nil
}
