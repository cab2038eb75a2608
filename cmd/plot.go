package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/store"
	"github.com/cwbudde/qgpep/internal/sweep"
)

var errNoTrace = errors.New("a trace file is required (--trace or QGPEP_TRACE)")

func newPlotCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the figure of a recorded sweep",
		Long:  `Reads a sweep trace and draws its last run without solving anything.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vip.GetString("trace") == "" {
				return errNoTrace
			}
			reader, err := store.NewTraceReader(vip.GetString("trace"))
			if err != nil {
				return err
			}
			defer reader.Close()

			entries, err := reader.ReadAll()
			if err != nil {
				return err
			}
			run := store.LatestRun(entries)
			if len(run) == 0 {
				return fmt.Errorf("trace %s: %w", vip.GetString("trace"), sweep.ErrNoPoints)
			}

			path := vip.GetString("out")
			opts := sweep.FigureOptionsFor(run[0].Method, run[0].L)
			if err := sweep.RenderFigure(path, sweep.FromTrace(run), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "figure of run %s (%s, %d points) written to %s\n", run[0].RunID, run[0].Method, len(run), path)
			return nil
		},
	}
	cmd.Flags().String("trace", "", "JSONL trace written by 'qgpep sweep --trace' (required)")
	cmd.Flags().String("out", "worst_case.png", "Figure path; the extension selects the format")
	return cmd
}
