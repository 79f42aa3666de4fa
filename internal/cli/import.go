package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/source"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	File   string
	URL    string
	Object string
	Export string
}

// ImportReport is the document uploaded by --export.
type ImportReport struct {
	Source      string               `json:"source"`
	DisplayName string               `json:"display_name"`
	Result      *domain.ImportResult `json:"result"`
	FinishedAt  time.Time            `json:"finished_at"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV or JSON sheet of applications",
		Long: `Import reads a spreadsheet export and reconciles it with the tracker.
Rows matching an existing application by company and title overwrite it,
other rows are added and rows without a company or title are skipped.
The whole sheet is applied in one transaction.

Exactly one of --file, --url or --object selects the sheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "local CSV or JSON file")
	cmd.Flags().StringVar(&opts.URL, "url", "", "HTTP(S) URL of a CSV or JSON sheet")
	cmd.Flags().StringVar(&opts.Object, "object", "", "object key in the configured bucket")
	cmd.Flags().StringVar(&opts.Export, "export", "", "upload a JSON import report to this object key")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *ImportOptions) error {
	selected := 0
	for _, v := range []string{opts.File, opts.URL, opts.Object} {
		if v != "" {
			selected++
		}
	}
	if selected != 1 {
		return NewExitError(ExitCommandError, "exactly one of --file, --url or --object is required")
	}

	a, err := openApp(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var src source.Source
	switch {
	case opts.File != "":
		src = source.NewFileSource(opts.File)
	case opts.URL != "":
		src = source.NewURLSource(source.NewRemoteClient(a.cfg.Import.RemoteTimeout), opts.URL)
	default:
		store, err := a.objectStore()
		if err != nil {
			return err
		}
		src = source.NewObjectSource(store, opts.Object)
	}

	result, err := a.imports.ImportFromSource(ctx, src)
	if err != nil {
		return WrapExitError(ExitFailure, "import failed, nothing was written", err)
	}

	if opts.Export != "" {
		if err := exportReport(cmd, a, src, result, opts.Export); err != nil {
			return err
		}
	}

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return out.Emit(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Source:\t%s\n", src.GetDisplayName())
		fmt.Fprintf(w, "Job:\t%s\n", result.JobID)
		fmt.Fprintf(w, "Added:\t%d\n", result.Added)
		fmt.Fprintf(w, "Updated:\t%d\n", result.Updated)
		fmt.Fprintf(w, "Skipped:\t%d\n", result.Skipped)
		return nil
	})
}

func exportReport(cmd *cobra.Command, a *app, src source.Source, result *domain.ImportResult, key string) error {
	store, err := a.objectStore()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(ImportReport{
		Source:      src.GetSourceID(),
		DisplayName: src.GetDisplayName(),
		Result:      result,
		FinishedAt:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := store.Upload(cmd.Context(), key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return WrapExitError(ExitFailure, "import committed but report upload failed", err)
	}
	a.log.WithField("key", key).Info("Uploaded import report")
	return nil
}
