package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

var (
	resolveSection string
	resolveJSON    bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [document] [excerpt]",
	Short: "Resolve the full live range of an excerpt",
	Long: `Resolves the single contiguous document range covering the excerpt,
including excerpts far longer than the host search limit. The resolved range
is validated against the excerpt before being reported; resolution fails
rather than return a range that could cover unrelated text.`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveSection, "section", "s", "", "section heading the excerpt is expected under")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output the resolved range as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	host, err := openHost(args[0])
	if err != nil {
		return err
	}
	eng := newEngine(host)

	r, err := eng.resolver.Resolve(cmd.Context(), args[1], resolveSection)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidationFailed) {
		cmd.PrintErrln("Could not resolve the excerpt to a document range.")
		return err
	}
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	text, err := host.Text(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("reading resolved range: %w", err)
	}

	if resolveJSON {
		out := struct {
			Start int    `json:"start"`
			End   int    `json:"end"`
			Text  string `json:"text"`
		}{r.Start, r.End, text}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal range: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s\n", render(headingStyle, fmt.Sprintf("bytes %d-%d (%d bytes)", r.Start, r.End, r.Len())))
	cmd.Println(oneLine(text, 400))
	return nil
}
