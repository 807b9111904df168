package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var (
	patternsJSON bool
	exportYAML   bool
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and rate learned layout patterns",
	Long: `Patterns associate a document signature with the layout that worked
for it. Each conversion updates the matching pattern's usage count and
success rate; operator feedback adjusts the success rate further.

Patterns whose success rate stays low are flagged for review and are
no longer applied to new documents.`,
	RunE: runPatternsList,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all patterns, most used first",
	RunE:  runPatternsList,
}

var patternsFlaggedCmd = &cobra.Command{
	Use:   "flagged",
	Short: "List patterns flagged for review",
	RunE:  runPatternsFlagged,
}

var patternsShowCmd = &cobra.Command{
	Use:   "show [pattern-id]",
	Short: "Show one pattern with its layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsShow,
}

var patternsFeedbackCmd = &cobra.Command{
	Use:   "feedback [pattern-id] [rating]",
	Short: "Rate a pattern's layout from 1 to 5",
	Args:  cobra.ExactArgs(2),
	RunE:  runPatternsFeedback,
}

var patternsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every pattern with its layout",
	Long:  `Export writes every learned pattern as JSON, or YAML with --yaml.`,
	RunE:  runPatternsExport,
}

func init() {
	patternsCmd.PersistentFlags().BoolVar(&patternsJSON, "json", false, "output as JSON")
	patternsExportCmd.Flags().BoolVar(&exportYAML, "yaml", false, "export as YAML")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsFlaggedCmd)
	patternsCmd.AddCommand(patternsShowCmd)
	patternsCmd.AddCommand(patternsFeedbackCmd)
	patternsCmd.AddCommand(patternsExportCmd)
	rootCmd.AddCommand(patternsCmd)
}

func runPatternsList(cmd *cobra.Command, _ []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	stats, err := learningService.ListPatterns(cmd.Context())
	if err != nil {
		return err
	}
	return outputPatternStats(cmd, stats, "No patterns learned yet.")
}

func runPatternsFlagged(cmd *cobra.Command, _ []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	stats, err := learningService.FlaggedPatterns(cmd.Context())
	if err != nil {
		return err
	}
	return outputPatternStats(cmd, stats, "No flagged patterns.")
}

func outputPatternStats(cmd *cobra.Command, stats []domain.PatternStats, empty string) error {
	if patternsJSON {
		return outputJSON(cmd, stats)
	}
	if len(stats) == 0 {
		cmd.Println(empty)
		return nil
	}

	st := newStyles(cmd.OutOrStdout(), domain.ThemeFor(domain.DocumentTypeUnknown))
	cmd.Printf("%-36s  %-16s  %5s  %7s\n", "ID", "TYPE", "USES", "SUCCESS")
	for i := range stats {
		p := &stats[i]
		line := fmt.Sprintf("%-36s  %-16s  %5d  %7.2f", p.ID, p.DocumentType, p.UsageCount, p.SuccessRate)
		if p.Flagged {
			line = st.Error.Render(line + "  flagged")
		}
		cmd.Println(line)
	}
	return nil
}

func runPatternsShow(cmd *cobra.Command, args []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	p, err := learningService.GetPattern(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get pattern: %w", err)
	}
	if patternsJSON {
		return outputJSON(cmd, p)
	}
	outputPattern(cmd, p)
	return nil
}

func outputPattern(cmd *cobra.Command, p *domain.Pattern) {
	st := newStyles(cmd.OutOrStdout(), domain.ThemeFor(p.Signature.DocumentType))
	cmd.Println(st.Title.Render("Pattern " + p.ID))
	cmd.Printf("  Signature: %s\n", p.Signature.Key())
	cmd.Printf("  Uses:      %d\n", p.UsageCount)
	cmd.Printf("  Success:   %.2f\n", p.SuccessRate)
	if p.Flagged {
		cmd.Println(st.Error.Render("  Flagged for review"))
	}
	if len(p.Layout.SectionOrder) > 0 {
		cmd.Println()
		cmd.Println(st.Subtitle.Render("Layout:"))
		for _, key := range p.Layout.SectionOrder {
			cmd.Printf("  %-14s %s\n", p.Layout.Strategies[key], key)
		}
	}
}

func runPatternsFeedback(cmd *cobra.Command, args []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a number from 1 to 5: %s", args[1])
	}
	p, err := learningService.RecordFeedback(cmd.Context(), args[0], rating)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	if patternsJSON {
		return outputJSON(cmd, p.Stats())
	}
	cmd.Printf("Recorded rating %d for %s (success %.2f)\n", rating, p.ID, p.SuccessRate)
	if p.Flagged {
		cmd.Println("Pattern is flagged for review.")
	}
	return nil
}

func runPatternsExport(cmd *cobra.Command, _ []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	stats, err := learningService.ListPatterns(cmd.Context())
	if err != nil {
		return err
	}

	patterns := make([]*domain.Pattern, 0, len(stats))
	for i := range stats {
		p, err := learningService.GetPattern(cmd.Context(), stats[i].ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to get pattern %s: %w", stats[i].ID, err)
		}
		patterns = append(patterns, p)
	}

	if !exportYAML {
		return outputJSON(cmd, patterns)
	}
	data, err := yaml.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	cmd.Print(string(data))
	return nil
}
