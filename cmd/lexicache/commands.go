package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ZaguanLabs/lexicache"
	"github.com/ZaguanLabs/lexicache/store"
	"github.com/spf13/cobra"
)

func (a *app) translateCommand() *cobra.Command {
	var (
		direction  string
		jsonOutput bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate a word or phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := lexicache.ParseDirection(direction)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			start := time.Now()
			result, err := a.dict.Lookup(cmd.Context(), strings.Join(args, " "), dir)
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			elapsed := time.Since(start)

			if jsonOutput {
				return outputJSON(a.stdout, result, elapsed)
			}

			fmt.Fprintln(a.stdout, result.Display)
			if result.Example != "" {
				fmt.Fprintf(a.stdout, "\n%s\n", result.Example)
			}

			if result.PersistErr != nil {
				fmt.Fprintf(a.stderr, "warning: result not saved: %v\n", result.PersistErr)
			}
			if !quiet {
				switch {
				case result.FromCache:
					fmt.Fprintf(a.stderr, "\nFrom cache (record %d)\n", result.RecordID)
				case result.RecordID != 0:
					fmt.Fprintf(a.stderr, "\nSaved as record %d in %v\n", result.RecordID, elapsed.Round(time.Millisecond))
				default:
					fmt.Fprintf(a.stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "en-zh", "translation direction: en-zh or zh-en")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress status output")
	return cmd
}

// JSONOutput represents the JSON output of the translate command.
type JSONOutput struct {
	Source     string   `json:"source"`
	FromLang   string   `json:"from_lang"`
	ToLang     string   `json:"to_lang"`
	Display    string   `json:"display"`
	Example    string   `json:"example,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	FromCache  bool     `json:"from_cache"`
	RecordID   int64    `json:"record_id,omitempty"`
	PersistErr string   `json:"persist_error,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, result *lexicache.Result, elapsed time.Duration) error {
	out := JSONOutput{
		Source:     result.Source,
		FromLang:   result.FromLang,
		ToLang:     result.ToLang,
		Display:    result.Display,
		Example:    result.Example,
		Candidates: result.Candidates,
		FromCache:  result.FromCache,
		RecordID:   result.RecordID,
		ElapsedMs:  elapsed.Milliseconds(),
	}
	if result.PersistErr != nil {
		out.PersistErr = result.PersistErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *app) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [pattern]",
		Short: "List stored lookups, optionally filtered by a pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			var pattern string
			if len(args) == 1 {
				pattern = args[0]
			}

			records, err := a.dict.History(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(a.stdout, "No history.")
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tDIRECTION\tSOURCE\tTRANSLATION")
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s→%s\t%s\t%s\n",
					r.ID, formatTime(r.CreatedAt), r.FromLang, r.ToLang,
					oneLine(r.Source), oneLine(r.Target))
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			r, err := a.dict.Recall(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "%s (%s → %s, %s)\n\n", r.Source,
				lexicache.GetLanguageName(r.FromLang), lexicache.GetLanguageName(r.ToLang),
				formatTime(r.CreatedAt))
			fmt.Fprintln(a.stdout, r.Target)
			if r.Example != "" {
				fmt.Fprintf(a.stdout, "\n%s\n", r.Example)
			}
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored lookups by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			seen := make(map[int64]bool, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
			if err := a.open(); err != nil {
				return err
			}

			err := a.dict.DeleteHistory(cmd.Context(), ids)
			var de *lexicache.DeleteError
			if errors.As(err, &de) {
				failed := de.FailedIDs()
				fmt.Fprintf(a.stdout, "Deleted %d of %d record(s)\n", len(ids)-len(failed), len(ids))
				for _, id := range failed {
					fmt.Fprintf(a.stderr, "  %d: %v\n", id, de.Failed[id])
				}
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Deleted %d record(s)\n", len(ids))
			return nil
		},
	}
}

func (a *app) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			if err := a.open(); err != nil {
				return err
			}
			if err := a.dict.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "History cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion of all history")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export history as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			s, err := a.requireStore("export")
			if err != nil {
				return err
			}

			metadata := map[string]string{"generator": lexicache.UserAgent()}
			exporter := store.NewExporter(s)
			if len(args) == 0 || args[0] == "-" {
				return exporter.Export(cmd.Context(), a.stdout, metadata)
			}
			if err := exporter.ExportToFile(cmd.Context(), args[0], metadata); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "Exported history to %s\n", args[0])
			return nil
		},
	}
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import history from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			s, err := a.requireStore("import")
			if err != nil {
				return err
			}

			var result *store.ImportResult
			if args[0] == "-" {
				result, err = store.NewImporter(s).Import(cmd.Context(), os.Stdin)
			} else {
				result, err = store.NewImporter(s).ImportFromFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Imported %d record(s)", result.Imported)
			if result.Failed > 0 {
				fmt.Fprintf(a.stdout, ", %d failed", result.Failed)
			}
			fmt.Fprintln(a.stdout)
			return nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "%s %s\n", lexicache.Name, version)
			if commit != "unknown" && commit != "" {
				fmt.Fprintf(a.stdout, "  commit:  %s\n", commit)
			}
			if buildDate != "unknown" && buildDate != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", buildDate)
			}
			return nil
		},
	}
}

func (a *app) requireStore(op string) (lexicache.Store, error) {
	if a.store == nil {
		return nil, &lexicache.StoreError{
			Kind:    lexicache.ErrStoreUnavailable,
			Op:      op,
			Message: "no record store configured",
		}
	}
	return a.store, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return lexicache.FormatTimestamp(t)
}

// oneLine joins a multi-line value for single-row display.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ; ")), " ")
}
