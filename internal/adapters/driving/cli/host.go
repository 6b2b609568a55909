package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/docx"
	"github.com/custodia-labs/redline-cli/internal/adapters/driven/host/memdoc"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
	"github.com/custodia-labs/redline-cli/internal/core/services"
)

// documentHost wraps a host with its optional save behaviour. Plain-text
// documents are read-only from the CLI's point of view until saved back out
// explicitly; .docx documents round-trip through the docx adapter.
type documentHost struct {
	driven.DocumentHost

	save func(path string) error
}

// openHost opens a document file as a host, selecting the adapter by
// extension.
func openHost(path string) (*documentHost, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		doc, err := docx.Open(path)
		if err != nil {
			return nil, err
		}
		return &documentHost{DocumentHost: doc, save: doc.Save}, nil
	}

	doc, err := memdoc.FromFile(path)
	if err != nil {
		return nil, err
	}
	return &documentHost{
		DocumentHost: doc,
		save: func(out string) error {
			return writeText(out, doc.Contents())
		},
	}, nil
}

// engine bundles the core services built over one open document.
type engine struct {
	host     *documentHost
	search   *services.SearchService
	resolver *services.ResolverService
	editor   *services.EditorService
	redline  *services.RedlineService
	review   *services.ReviewService
}

// newEngine constructs the service graph for an open document.
func newEngine(host *documentHost) *engine {
	search := services.NewSearchService(host, tuning)
	resolver := services.NewResolverService(host, search, tuning)
	editor := services.NewEditorService(host, tuning)
	redline := services.NewRedlineService(tuning)
	review := services.NewReviewService(host, search, resolver, editor, redline, tuning)

	return &engine{
		host:     host,
		search:   search,
		resolver: resolver,
		editor:   editor,
		redline:  redline,
		review:   review,
	}
}

// saveDocument writes the edited document to out, defaulting to in-place.
func (e *engine) saveDocument(in, out string) error {
	if out == "" {
		out = in
	}
	if err := e.host.save(out); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// writeText writes plain-text document contents to disk.
func writeText(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
