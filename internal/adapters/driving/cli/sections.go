package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/core/services"
)

var (
	sectionsJSON    bool
	sectionsRedline bool
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [review.json]",
	Short: "List the sections of a review payload",
	Long: `Lists each section of a review payload with its risk level and edit type.

With --redline, full-text sections additionally show the redline between
their original and revised text.`,
	Args: cobra.ExactArgs(1),
	RunE: runSections,
}

func init() {
	sectionsCmd.Flags().BoolVar(&sectionsJSON, "json", false, "output sections as JSON")
	sectionsCmd.Flags().BoolVar(&sectionsRedline, "redline", false, "preview the redline of full-text sections")
	rootCmd.AddCommand(sectionsCmd)
}

func runSections(cmd *cobra.Command, args []string) error {
	review, err := loadReview(args[0])
	if err != nil {
		return err
	}

	if sectionsJSON {
		return printJSON(cmd, review.Sections)
	}

	var redline *services.RedlineService
	if sectionsRedline {
		redline = services.NewRedlineService(tuning)
	}
	renderSections(cmd, review, redline)
	return nil
}
