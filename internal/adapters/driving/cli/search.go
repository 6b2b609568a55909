package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

var (
	searchSection string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [document] [excerpt]",
	Short: "Locate excerpt text in a document",
	Long: `Runs the cascading search for an excerpt and prints the scored match
candidates. Tiers are tried in descending precision: exact, normalised,
wildcard and fuzzy, with a section-heading anchor tier for long excerpts.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSection, "section", "s", "", "section heading the excerpt is expected under")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	host, err := openHost(args[0])
	if err != nil {
		return err
	}
	eng := newEngine(host)

	matches, err := eng.search.Search(cmd.Context(), args[1], searchSection)
	if errors.Is(err, domain.ErrLowConfidence) {
		cmd.Println("No matches found: every candidate scored below its tier's confidence floor.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	renderMatches(cmd, matches)
	return nil
}
