package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/verify"
)

func newVerifyCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compute the worst-case guarantee of a method",
		Long: `Builds the performance estimation problem of the method, solves it and
prints the worst-case guarantee next to the closed-form bound. Without flags
it reproduces the reference experiment of the default method.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := verify.Lookup(vip.GetString("method"))
			if err != nil {
				return err
			}

			g, err := verify.New(solverOptions(vip)).Verify(cmd.Context(), m.Name, paramsFrom(vip, m))
			if err != nil {
				return err
			}
			printGuarantee(cmd, m, g)
			return nil
		},
	}
	cmd.Flags().String("method", "cg", "Method to verify (see 'qgpep list')")
	addParamFlags(cmd.Flags())
	return cmd
}

func printGuarantee(cmd *cobra.Command, m *verify.Method, g *verify.Guarantee) {
	out := cmd.OutOrStdout()
	label := metricLabel(g)
	fmt.Fprintf(out, "*** Worst-case performance of %s (n=%d) ***\n", m.Description, g.Params.N)
	fmt.Fprintf(out, "\tPEP guarantee:\t\t %s <= %.6g ||x_0 - x_*||^2\n", label, g.WorstCase)
	if g.HasTheory {
		fmt.Fprintf(out, "\tTheoretical guarantee:\t %s <= %.6g ||x_0 - x_*||^2\n", label, g.Theoretical)
	} else {
		fmt.Fprintf(out, "\tTheoretical guarantee:\t none for these parameters\n")
	}
	fmt.Fprintf(out, "\tWorst-case dimension:\t %d (solver %s, %d iterations, %s)\n",
		g.Dimension, g.Status, g.Iterations, g.Elapsed.Round(time.Millisecond))
}
