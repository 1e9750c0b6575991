package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/config"
	"github.com/mschirtzinger/issuesync/internal/db"
	"github.com/mschirtzinger/issuesync/internal/schema"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	GroupID: "inspect",
	Short:   "List records in the local SQLite store",
	Long: `List records written by the sqlite store driver, newest first.

Only available when store.driver is sqlite. Notion records are best viewed
in Notion.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.cfg.Store.Driver != config.DriverSQLite {
			return fmt.Errorf("%w: records needs store.driver sqlite, got %q",
				schema.ErrConfiguration, app.cfg.Store.Driver)
		}
		priority, _ := cmd.Flags().GetString("priority")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		store, err := app.sqliteStore(cmd.Context())
		if err != nil {
			return err
		}

		recs, err := store.ListRecords(cmd.Context(), db.ListRecordsFilter{
			Priority: schema.Priority(priority),
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		total, err := store.GetRecordCount(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(os.Stdout, recs)
		}
		printRecords(os.Stdout, recs, total)
		return nil
	},
}

func init() {
	recordsCmd.Flags().String("priority", "", "only records with this priority (Critical, High, Medium)")
	recordsCmd.Flags().Int("limit", 50, "maximum records to show")
	recordsCmd.Flags().Bool("json", false, "print records as JSON")
	rootCmd.AddCommand(recordsCmd)
}

func printRecords(w io.Writer, recs []schema.Record, total int) {
	if len(recs) == 0 {
		fmt.Fprintf(w, "%s No records yet. Run 'issuesync sync' first\n", ui.RenderInfoIcon())
		return
	}
	for _, rec := range recs {
		fmt.Fprintf(w, "%s  %-8s  %s\n", ui.RenderMuted(rec.ID), ui.RenderPriority(string(rec.Priority)), ui.RenderBold(rec.Title))
		fmt.Fprintf(w, "    %s  %s\n", rec.URL, ui.RenderMuted(rec.LastActivity))
	}
	fmt.Fprintf(w, "\n%d of %d records\n", len(recs), total)
}
