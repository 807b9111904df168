package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Convert documents as they appear in a directory",
	Long: `Watch converts every supported file created or rewritten in a directory.

Recognizers often write a payload in several chunks, so a file is
converted once it has been quiet for the debounce interval. Stop with
Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before converting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if conversionService == nil {
		return errors.New("conversion service not configured")
	}

	dir := filepath.Clean(args[0])
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	ctx := cmd.Context()
	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, ok := watchTarget(event)
			if !ok {
				continue
			}
			if t, exists := timers[path]; exists {
				t.Reset(watchDebounce)
				continue
			}
			timers[path] = time.AfterFunc(watchDebounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			convertWatched(cmd, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// watchTarget returns the file to convert for an event. Only creates and
// writes of visible files with a supported format qualify.
func watchTarget(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	if _, ok := conversionService.FormatForPath(event.Name); !ok {
		return "", false
	}
	return event.Name, true
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func convertWatched(cmd *cobra.Command, path string) {
	result, err := convertPath(cmd.Context(), nil, path, "")
	switch {
	case result == nil:
		cmd.Printf("FAIL %s: %v\n", path, err)
	case err != nil:
		cmd.Printf("REVIEW %s: %d unresolved issue(s)\n", path, len(result.Unresolved))
	default:
		cmd.Printf("ok %s  %s  quality %.2f  %d sections\n",
			path, result.DocumentType, result.Quality, len(result.Plan.Sections))
	}
}
