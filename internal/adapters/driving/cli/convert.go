package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var (
	convertFormat string
	convertJSON   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert one recognized document into a layout plan",
	Long: `Convert reads the recognizer output for one document and prints the
resulting layout plan together with any validation issues.

The payload format is taken from the file extension (.json, .yaml, .md,
.html) unless --format is given. Use "-" to read from stdin; stdin
defaults to JSON.

The command exits with an error when critical issues remain after
auto-correction. The partial result is still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "payload format (json, yaml, markdown, html)")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if conversionService == nil {
		return errors.New("conversion service not configured")
	}

	result, err := convertPath(cmd.Context(), cmd.InOrStdin(), args[0], convertFormat)
	if result == nil {
		return err
	}

	if convertJSON {
		if jerr := outputJSON(cmd, result); jerr != nil {
			return jerr
		}
	} else {
		outputResult(cmd, result)
	}
	return err
}

// convertPath reads a payload from a file (or stdin for "-") and converts it.
// The result is non-nil together with an error when validation fails.
func convertPath(ctx context.Context, stdin io.Reader, path, format string) (*domain.ConversionResult, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
		if format == "" {
			format = "json"
		}
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if format == "" {
		var ok bool
		format, ok = conversionService.FormatForPath(path)
		if !ok {
			return nil, fmt.Errorf("cannot infer format for %s (supported: %s)",
				path, strings.Join(conversionService.Formats(), ", "))
		}
	}

	result, err := conversionService.ConvertPayload(ctx, format, data)
	if err != nil && !errors.Is(err, domain.ErrValidationFailed) {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}
	return result, err
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResult(cmd *cobra.Command, result *domain.ConversionResult) {
	st := newStyles(cmd.OutOrStdout(), domain.ThemeFor(result.DocumentType))

	header := []string{
		st.Title.Render(fmt.Sprintf("Document %s", result.DocumentID)),
		fmt.Sprintf("Type: %s", result.DocumentType.Description()),
	}
	if result.Plan != nil {
		header = append(header, fmt.Sprintf("Quality: %.2f", result.Quality))
		if result.PatternID != "" {
			header = append(header, st.Muted.Render("Pattern: "+result.PatternID))
		}
	} else {
		header = append(header, st.Error.Render("Rejected: critical issues need review"))
	}
	cmd.Println(st.Box.Render(strings.Join(header, "\n")))
	cmd.Println()

	if result.Plan != nil {
		cmd.Println(st.Subtitle.Render("Sections:"))
		for i := range result.Plan.Sections {
			sec := &result.Plan.Sections[i]
			title := sec.Title
			if title == "" {
				title = sec.Key
			}
			cmd.Printf("  %-14s %s %s\n", sec.Strategy, title,
				st.Muted.Render(fmt.Sprintf("(%d blocks)", len(sec.Blocks))))
		}
		cmd.Println()
	}

	if len(result.Issues) > 0 {
		cmd.Println(st.Subtitle.Render("Issues:"))
		for _, is := range result.Issues {
			line := fmt.Sprintf("  %-8s %-17s %s: %s", is.Severity, is.Category, is.Ref, is.Message)
			if is.AutoCorrectable && is.Correction != nil {
				line += " " + st.Success.Render("(corrected)")
			}
			cmd.Println(st.severityStyle(is.Severity).Render(line))
		}
		cmd.Println()
	}

	if result.LearningError != "" {
		cmd.Println(st.Warning.Render("Learning store: " + result.LearningError))
	}
}
