package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var (
	blocklistJSON    bool
	blocklistType    string
	blocklistDefault string
)

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Manage phrases the recognizer is known to invent",
	Long: `The blocklist holds placeholder and fabricated phrases. Values matching
an entry are replaced by the entry's safe default, or removed when it has
none. Phrases seen repeatedly as hallucinations are added automatically.`,
	RunE: runBlocklistList,
}

var blocklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocklist entries",
	RunE:  runBlocklistList,
}

var blocklistAddCmd = &cobra.Command{
	Use:   "add [phrase]",
	Short: "Add a phrase to the blocklist",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlocklistAdd,
}

var blocklistRemoveCmd = &cobra.Command{
	Use:   "remove [entry-id]",
	Short: "Remove a blocklist entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlocklistRemove,
}

var blocklistHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show logged hallucination occurrences",
	RunE:  runBlocklistHistory,
}

func init() {
	blocklistCmd.PersistentFlags().StringVarP(&blocklistType, "type", "t", "",
		"document type (church_bulletin, election_flyer, newsletter)")
	blocklistCmd.PersistentFlags().BoolVar(&blocklistJSON, "json", false, "output as JSON")
	blocklistAddCmd.Flags().StringVar(&blocklistDefault, "default", "", "replacement value (empty removes the value)")

	blocklistCmd.AddCommand(blocklistListCmd)
	blocklistCmd.AddCommand(blocklistAddCmd)
	blocklistCmd.AddCommand(blocklistRemoveCmd)
	blocklistCmd.AddCommand(blocklistHistoryCmd)
	rootCmd.AddCommand(blocklistCmd)
}

// documentTypeFlag validates the --type flag. Empty is allowed.
func documentTypeFlag() (domain.DocumentType, error) {
	t := domain.DocumentType(blocklistType)
	if t != "" && !t.IsValid() {
		return "", fmt.Errorf("unknown document type: %s", blocklistType)
	}
	return t, nil
}

func runBlocklistList(cmd *cobra.Command, _ []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	docType, err := documentTypeFlag()
	if err != nil {
		return err
	}
	entries, err := learningService.ListBlocklist(cmd.Context(), docType)
	if err != nil {
		return fmt.Errorf("failed to list blocklist: %w", err)
	}
	if blocklistJSON {
		return outputJSON(cmd, entries)
	}
	if len(entries) == 0 {
		cmd.Println("Blocklist is empty.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		scope := string(e.DocumentType)
		if scope == "" {
			scope = "all"
		}
		replacement := e.SafeDefault
		if replacement == "" {
			replacement = "(remove)"
		}
		cmd.Printf("%s  %-16s %-9s %q -> %s\n", e.ID, scope, e.Source, e.Phrase, replacement)
	}
	return nil
}

func runBlocklistAdd(cmd *cobra.Command, args []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	docType, err := documentTypeFlag()
	if err != nil {
		return err
	}
	entry, err := learningService.AddBlocklist(cmd.Context(), docType, args[0], blocklistDefault)
	if err != nil {
		return fmt.Errorf("failed to add phrase: %w", err)
	}
	if blocklistJSON {
		return outputJSON(cmd, entry)
	}
	cmd.Printf("Added %q (%s)\n", entry.Phrase, entry.ID)
	return nil
}

func runBlocklistRemove(cmd *cobra.Command, args []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	if err := learningService.RemoveBlocklist(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runBlocklistHistory(cmd *cobra.Command, _ []string) error {
	if learningService == nil {
		return errors.New("learning service not configured")
	}
	docType, err := documentTypeFlag()
	if err != nil {
		return err
	}
	if docType == "" {
		return errors.New("--type is required")
	}
	history, err := learningService.IssueHistory(cmd.Context(), docType)
	if err != nil {
		return fmt.Errorf("failed to read issue history: %w", err)
	}
	if blocklistJSON {
		return outputJSON(cmd, history)
	}
	if len(history) == 0 {
		cmd.Println("No hallucinations logged.")
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, occ := range history {
		if counts[occ.TextKey] == 0 {
			order = append(order, occ.TextKey)
		}
		counts[occ.TextKey]++
	}
	for _, key := range order {
		cmd.Printf("%4d  %s\n", counts[key], key)
	}
	return nil
}
