package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pdptracker/internal/config"
	"pdptracker/internal/core"
	"pdptracker/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the fixed historical year",
	Long:  "Upserts the historical per-person totals. Running it again changes nothing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if !s.records.SeedHistoricalYear(ctx) {
			return fmt.Errorf("seed historical records: backend write failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Historical records seeded")
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print year-to-date totals per person and per month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.loadState(ctx)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), st.Dashboard())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the imported historical years",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.loadState(ctx)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), st.HistoricalYears())
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending [count]",
	Short: "Show or set the pending readings counter",
	Long: `Without arguments prints the counter. With a count stores it;
negative or unparseable values are stored as 0.

Flags are not parsed after "pending" so that negative counts are accepted
as the argument; the default --timeout applies.`,
	Args:               cobra.MaximumNArgs(1),
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
			return cmd.Help()
		}

		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		st := s.records.GetAppState(ctx)
		if len(args) == 1 {
			st = core.ClampPending(args[0])
			if !s.records.SetAppState(ctx, st) {
				return fmt.Errorf("save pending counter: backend write failed")
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pendientes: %d (%s)\n", st.Pendientes, core.LevelFor(st.Pendientes))
		return nil
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every table of the sqlite database",
	Long: `Reverts all migrations. The schema is recreated the next time the
server or any other command opens the database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DataBackend != config.BackendSQLite {
			return fmt.Errorf("reset only applies to the sqlite backend (DATA_BACKEND=%s)", cfg.DataBackend)
		}
		if !resetYes {
			return fmt.Errorf("refusing to drop %s without --yes", cfg.SQLiteDBPath)
		}
		if err := storage.MigrateDown(cfg.SQLiteDBPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s reset\n", cfg.SQLiteDBPath)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm dropping all data")
}

func printSummary(out io.Writer, d core.Dashboard) {
	last := "-"
	if d.LastModified != nil {
		last = *d.LastModified
	}
	fmt.Fprintf(out, "Precio: %s   Pendientes: %d (%s)   Última modificación: %s\n\n",
		d.PriceLabel, d.Pendientes, d.PendingLevel, last)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Radiólogo\tLecturas\tBruto\t")
	for _, t := range d.Totals {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", t.Corto, t.Total, t.BrutoLabel)
	}
	fmt.Fprintf(tw, "Total\t%d\t%s\t\n", d.GrandTotal, d.GrossLabel)
	tw.Flush()

	if len(d.Months) == 0 {
		return
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Mes\tTotal\tBruto\tSubperiodos\t")
	for _, m := range d.Months {
		subs := "-"
		if len(m.Subs) > 0 {
			subs = strconv.Itoa(m.SubTotal)
			if !m.Reconciled() {
				subs += " (no cuadra)"
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", m.Mes, m.Total, m.GrossLabel, subs)
	}
	tw.Flush()
}

func printHistory(out io.Writer, years []core.HistoricalYear) {
	if len(years) == 0 {
		fmt.Fprintln(out, "No historical records")
		return
	}
	for i, y := range years {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d  (%d lecturas, %s)\n", y.Year, y.Total, y.GrossLabel)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range y.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t\n", r.Nombre, r.Apodo, r.Lecturas)
		}
		tw.Flush()
	}
}
