package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

var (
	batchConcurrency int
	batchJSON        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Convert many documents concurrently",
	Long: `Batch converts every given file, and every file with a supported
extension inside given directories (not recursive).

Documents are converted concurrently and share the pattern store, so
documents with the same shape reinforce one learned pattern. A failure
in one document does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", runtime.NumCPU(), "documents converted at once")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is the outcome for one file.
type batchItem struct {
	Path   string                   `json:"path"`
	Result *domain.ConversionResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	if conversionService == nil {
		return errors.New("conversion service not configured")
	}
	if batchConcurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	items := make([]batchItem, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(batchConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Per-document failures are reported, not propagated.
			result, err := convertPath(ctx, nil, path, "")
			items[i] = batchItem{Path: path, Result: result}
			if err != nil {
				items[i].Error = err.Error()
				logger.Debug("batch: %s: %v", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if batchJSON {
		if err := outputJSON(cmd, items); err != nil {
			return err
		}
	} else {
		outputBatch(cmd, items)
	}

	failed := 0
	for i := range items {
		if items[i].Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(items))
	}
	return nil
}

func outputBatch(cmd *cobra.Command, items []batchItem) {
	st := newStyles(cmd.OutOrStdout(), domain.ThemeFor(domain.DocumentTypeUnknown))
	for i := range items {
		it := &items[i]
		switch {
		case it.Error != "":
			cmd.Println(st.Error.Render(fmt.Sprintf("FAIL %s: %s", it.Path, it.Error)))
		default:
			cmd.Printf("%s %s  %s  quality %.2f\n", st.Success.Render("ok  "), it.Path,
				it.Result.DocumentType, it.Result.Quality)
		}
	}
	cmd.Println()
	cmd.Printf("%d documents processed\n", len(items))
}

// expandPaths replaces directories with the supported files they contain.
// Hidden files are skipped. The result is sorted and de-duplicated.
func expandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			p := filepath.Join(arg, e.Name())
			if _, ok := conversionService.FormatForPath(p); ok {
				add(p)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}
