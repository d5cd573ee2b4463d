package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cbm/promotion-engine/api"
	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/statute"
)

// =============================================================================
// REPORT COMMANDS
// =============================================================================

var forecastCorps string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast the next promotion of every active member",
	Long: `Computes the next eligible date and remaining-time label of every active
member. Members whose stored rank, corps or date cannot be interpreted are
listed after the table and never stop the report.`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies",
	Short: "Report allowed, occupied and available seats per corps",
	Args:  cobra.NoArgs,
	RunE:  runVacancies,
}

var boardCmd = &cobra.Command{
	Use:   "board <corps> <rank>",
	Short: "Promotion board of one rank inside one corps",
	Example: `  promotions board QOEM Major
  promotions board QPBM "1º Sargento" --as-of 2025-06-30`,
	Args: cobra.ExactArgs(2),
	RunE: runBoard,
}

var seedCmd = &cobra.Command{
	Use:       "seed <scenario>",
	Short:     "Reset the database and load a demo roster",
	Args:      cobra.ExactArgs(1),
	ValidArgs: api.ScenarioIDs(),
	RunE:      runSeed,
}

func init() {
	forecastCmd.Flags().StringVar(&forecastCorps, "corps", "", "only this corps (e.g. QOEM)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now, err := referenceTime()
	if err != nil {
		return err
	}
	result, err := a.service.Forecasts(cmd.Context(), forecastCorps, now)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), struct {
			AsOf      string              `json:"as_of"`
			Forecasts []forecast.Forecast `json:"forecasts"`
			Skipped   []string            `json:"skipped"`
		}{result.AsOf.String(), result.Forecasts, skippedLines(result.Skipped)})
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "MEMBER\tRANK\tNEXT\tELIGIBLE ON\tREMAINING\tCRITERION\n")
	for _, f := range result.Forecasts {
		next, on := "-", "-"
		if f.NextRank != nil {
			next = f.NextRank.String()
		}
		if f.NextEligibleDate != nil {
			on = f.NextEligibleDate.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.MemberID, f.CurrentRank, next, on, f.RemainingLabel, f.Criterion)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printSkipped(cmd.ErrOrStderr(), result.Skipped)
	return nil
}

func runVacancies(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.service.Vacancies(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), view.Report)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "CORPS\tRANK\tALLOWED\tOCCUPIED\tAVAILABLE\n")
	for _, cr := range view.Report.Corps {
		for _, row := range cr.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", cr.Corps, row.Rank, row.AllowedSeats, row.OccupiedSeats, row.AvailableSeats)
		}
	}
	t := view.Report.Totals
	fmt.Fprintf(tw, "OFFICERS\t\t%d\t%d\t%d\n", t.Officer.AllowedSeats, t.Officer.OccupiedSeats, t.Officer.AvailableSeats)
	fmt.Fprintf(tw, "ENLISTED\t\t%d\t%d\t%d\n", t.Enlisted.AllowedSeats, t.Enlisted.OccupiedSeats, t.Enlisted.AvailableSeats)
	fmt.Fprintf(tw, "TOTAL\t\t%d\t%d\t%d\n", t.Grand.AllowedSeats, t.Grand.OccupiedSeats, t.Grand.AvailableSeats)
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, issue := range view.Report.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", issue)
	}
	printSkipped(cmd.ErrOrStderr(), view.Skipped)
	return nil
}

func runBoard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now, err := referenceTime()
	if err != nil {
		return err
	}
	board, err := a.service.Board(cmd.Context(), args[0], args[1], now)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), board)
	}

	out := cmd.OutOrStdout()
	if board.NextRank == nil {
		fmt.Fprintf(out, "%s %s: no promotion board\n", board.Corps, board.Rank)
		return nil
	}
	fmt.Fprintf(out, "%s %s -> %s (%s), %d seats, as of %s\n",
		board.Corps, board.Rank, board.NextRank, board.Criterion, board.AvailableSeats, board.AsOf)
	tw := newTable(out)
	fmt.Fprintf(tw, "#\tMEMBER\tNAME\tLAST PROMOTION\tSCORE\tSEAT\n")
	for _, e := range board.Entries {
		seat := ""
		if e.WithinVacancies {
			seat = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Position, e.MemberID, e.DisplayName, e.LastPromotionDate, e.Score, seat)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printSkipped(cmd.ErrOrStderr(), board.Skipped)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now, err := referenceTime()
	if err != nil {
		return err
	}
	if err := api.LoadScenario(cmd.Context(), a.service, a.store, args[0], now); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded scenario %s into %s\n", args[0], cfg.Database.Path)
	return nil
}

// =============================================================================
// STATUTE COMMANDS
// =============================================================================

var statuteCmd = &cobra.Command{
	Use:   "statute",
	Short: "Inspect and validate statute files",
}

var statuteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the rule and seat tables in force",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadStatute()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), st.Document())
		}
		return printStatute(cmd.OutOrStdout(), st)
	},
}

var statuteCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a statute file without starting the service",
	Long: `Parses a YAML or JSON statute and reports every problem found. Exits
non-zero when the statute would be rejected at startup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := statute.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (version %s, %d rules)\n", args[0], st.Version, len(st.Rules.Rules()))
		return nil
	},
}

func init() {
	statuteCmd.AddCommand(statuteShowCmd, statuteCheckCmd)
}

// =============================================================================
// OUTPUT
// =============================================================================

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStatute(w io.Writer, st statute.Statute) error {
	if st.EffectiveFrom.IsZero() {
		fmt.Fprintf(w, "statute %s\n\n", st.Version)
	} else {
		fmt.Fprintf(w, "statute %s, effective %s\n\n", st.Version, st.EffectiveFrom)
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "RANK\tCODE\tMIN YEARS\tCRITERION\tNEXT\n")
	for _, rule := range st.Rules.Rules() {
		next := "-"
		if rule.HasNext {
			next = rule.Next.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", rule.Rank, rule.Rank.Code(), rule.MinimumYears, rule.Criterion, next)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, c := range rank.AllCorps() {
		fmt.Fprintf(w, "\n%s (%s)\n", c, c.Name())
		if !c.Capped() {
			fmt.Fprintf(w, "  uncapped\n")
			continue
		}
		tw = newTable(w)
		for _, r := range st.Seats.Ranks(c) {
			n, _ := st.Seats.Seats(c, r)
			fmt.Fprintf(tw, "  %s\t%d\n", r, n)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func printSkipped(w io.Writer, skipped []forecast.RecordError) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "%d member(s) skipped:\n", len(skipped))
	for _, line := range skippedLines(skipped) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func skippedLines(skipped []forecast.RecordError) []string {
	lines := make([]string, len(skipped))
	for i, rec := range skipped {
		lines[i] = rec.Error()
	}
	return lines
}
