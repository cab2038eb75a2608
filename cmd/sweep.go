package main

import (
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/store"
	"github.com/cwbudde/qgpep/internal/sweep"
	"github.com/cwbudde/qgpep/internal/verify"
)

func newSweepCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Verify a method over a range of iteration counts and plot the result",
		Long: `Verifies the method for every n in [from, to] with the given stride,
prints the guarantees, optionally records them in a JSONL trace and draws the
worst case against the closed-form bound.`,
		Args: cobra.NoArgs,
		RunE: runSweep(vip),
	}
	fs := cmd.Flags()
	def := sweep.DefaultRange()
	fs.String("method", "gd-decreasing", "Method to sweep (see 'qgpep list')")
	fs.Int("from", def.From, "First iteration count")
	fs.Int("to", def.To, "Last iteration count")
	fs.Int("stride", def.Step, "Increment between iteration counts")
	fs.String("out", "worst_case.png", "Figure path; the extension selects the format (empty to skip)")
	fs.String("trace", "", "JSONL trace path (empty to skip)")
	fs.Bool("append", false, "Append to an existing trace instead of replacing it")
	addParamFlags(fs)
	return cmd
}

func runSweep(vip *viper.Viper) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := verify.Lookup(vip.GetString("method"))
		if err != nil {
			return err
		}
		params := paramsFrom(vip, m)
		rng := sweep.Range{From: vip.GetInt("from"), To: vip.GetInt("to"), Step: vip.GetInt("stride")}

		runID := uuid.New().String()
		var trace *store.TraceWriter
		if path := vip.GetString("trace"); path != "" {
			trace, err = store.NewTraceWriter(path, vip.GetBool("append"))
			if err != nil {
				return err
			}
			defer trace.Close()
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "N\tWORST CASE\tTHEORY\tSTATUS")
		onPoint := func(g *verify.Guarantee) error {
			theory := "-"
			if g.HasTheory {
				theory = fmt.Sprintf("%.6g", g.Theoretical)
			}
			fmt.Fprintf(w, "%d\t%.6g\t%s\t%s\n", g.Params.N, g.WorstCase, theory, g.Status)
			if trace == nil {
				return nil
			}
			return trace.Write(store.TraceEntry{
				RunID:       runID,
				Method:      g.Method,
				N:           g.Params.N,
				WorstCase:   g.WorstCase,
				Theoretical: g.Theoretical,
				HasTheory:   g.HasTheory,
				L:           g.Params.L,
				Timestamp:   time.Now(),
			})
		}

		points, err := sweep.Run(cmd.Context(), verify.New(solverOptions(vip)), m.Name, params, rng, onPoint)
		w.Flush()
		if err != nil {
			return err
		}
		if trace != nil {
			if err := trace.Flush(); err != nil {
				return err
			}
		}

		summary, err := sweep.Summarize(points)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s: %d points, worst case in [%.6g, %.6g]", runID, summary.Points, summary.Min, summary.Max)
		if !math.IsNaN(summary.MaxGap) {
			fmt.Fprintf(out, ", max |worst case - theory| %.3g", summary.MaxGap)
		}
		fmt.Fprintln(out)

		if path := vip.GetString("out"); path != "" {
			if err := sweep.RenderFigure(path, points, sweep.FigureOptionsFor(m.Name, params.L)); err != nil {
				return err
			}
			fmt.Fprintf(out, "figure written to %s\n", path)
		}
		return nil
	}
}
