package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var series bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if series {
				ts, err := a.analytics.TimeSeries(cmd.Context())
				if err != nil {
					return err
				}
				return out.Emit(ts, func(w io.Writer) error {
					fmt.Fprintln(w, "WEEK\tAPPLICATIONS")
					for _, wk := range ts.PerWeek {
						fmt.Fprintf(w, "%s\t%d\n", wk.Label, wk.Count)
					}
					fmt.Fprintln(w, "\nMONTH\tTOTAL\tINTERVIEWED\tRATE")
					for _, m := range ts.InterviewRateByMonth {
						fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", m.Month, m.Total, m.Interviewed, m.Rate)
					}
					return nil
				})
			}

			stats, err := a.analytics.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return out.Emit(stats, func(w io.Writer) error {
				fmt.Fprintf(w, "Total applications:\t%d\n", stats.Total)
				fmt.Fprintf(w, "Interview rate:\t%.1f%%\n", stats.InterviewRate)
				if stats.AvgResponseDays != nil {
					fmt.Fprintf(w, "Avg response days:\t%.1f\n", *stats.AvgResponseDays)
				} else {
					fmt.Fprintln(w, "Avg response days:\tn/a")
				}
				fmt.Fprintf(w, "Weekly trend:\t%.1f vs %.1f (%s)\n",
					stats.WeeklyTrend.Current, stats.WeeklyTrend.Previous, stats.WeeklyTrend.Direction)
				fmt.Fprintln(w, "\nSTATUS\tCOUNT")
				for _, sc := range stats.StatusDistribution {
					fmt.Fprintf(w, "%s\t%d\n", sc.Status, sc.Count)
				}
				if len(stats.Keywords) > 0 {
					fmt.Fprintln(w, "\nKEYWORD\tCOUNT")
					for _, kw := range stats.Keywords {
						fmt.Fprintf(w, "%s\t%d\n", kw.Keyword, kw.Count)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&series, "series", false, "print weekly and monthly series instead of the summary")

	return cmd
}
