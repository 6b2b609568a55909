package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/logger"
)

var (
	applyDryRun    bool
	applyTracking  bool
	applySessionID string
	applyNoResume  bool
	applyOut       string
	applyJSON      bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [document] [review.json]",
	Short: "Apply a review payload to a document",
	Long: `Applies every section of a review payload to the document, in reverse
document order so earlier edits never shift later targets. Sections already
applied in the session are skipped, so a failed batch can be re-run safely.

With --dry-run each section is resolved and reported without mutating the
document.`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "resolve sections without mutating the document")
	applyCmd.Flags().BoolVar(&applyTracking, "tracking", true, "request native change tracking")
	applyCmd.Flags().StringVar(&applySessionID, "session", "", "resume a specific session ID")
	applyCmd.Flags().BoolVar(&applyNoResume, "no-resume", false, "start a fresh session even if one exists for the document")
	applyCmd.Flags().StringVarP(&applyOut, "out", "o", "", "output path (default: overwrite the input document)")
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	docPath, payloadPath := args[0], args[1]

	review, err := loadReview(payloadPath)
	if err != nil {
		return err
	}
	if review.DocumentURI == "" {
		review.DocumentURI = docPath
	}

	host, err := openHost(docPath)
	if err != nil {
		return err
	}
	eng := newEngine(host)

	if applyDryRun {
		resolutions, err := eng.review.DryRun(cmd.Context(), review)
		if err != nil {
			return fmt.Errorf("dry run failed: %w", err)
		}
		if applyJSON {
			return printJSON(cmd, resolutions)
		}
		renderResolutions(cmd, resolutions)
		return nil
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()
	sessions := store.SessionStore()
	eng.review.SetSessionStore(sessions)

	session, err := resumeSession(cmd.Context(), sessions, docPath)
	if err != nil {
		return err
	}
	logger.Info("Using session %s", session.ID)

	report, err := eng.review.ApplyAll(cmd.Context(), review, session, applyTracking)
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	if err := eng.saveDocument(docPath, applyOut); err != nil {
		return err
	}

	if applyJSON {
		return printJSON(cmd, report)
	}
	renderReport(cmd, report)

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d sections failed", len(report.Failed))
	}
	return nil
}

// resumeSession finds the session to run under: an explicit ID, the latest
// session for the document, or a fresh one.
func resumeSession(ctx context.Context, sessions driven.SessionStore, docPath string) (*domain.ReviewSession, error) {
	if applySessionID != "" {
		session, err := sessions.Get(ctx, applySessionID)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", applySessionID, err)
		}
		return session, nil
	}

	if !applyNoResume {
		session, err := sessions.GetByDocument(ctx, docPath)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("looking up session for %s: %w", docPath, err)
		}
	}

	return domain.NewReviewSession(uuid.NewString(), docPath), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
