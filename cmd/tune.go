package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/opt"
	"github.com/cwbudde/qgpep/internal/verify"
)

func newTuneCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Search the constant step size with the smallest worst case",
		Long: `Minimises the worst-case guarantee over the constant step size of the
method with the Mayfly swarm optimiser, then verifies the best step found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := verify.Lookup(vip.GetString("method"))
			if err != nil {
				return err
			}
			optimizer := opt.NewMayfly(vip.GetInt("iters"), vip.GetInt("pop"), vip.GetInt64("seed"))

			g, err := verify.New(solverOptions(vip)).TuneStep(cmd.Context(), m.Name, paramsFrom(vip, m),
				vip.GetFloat64("lower"), vip.GetFloat64("upper"), optimizer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "best step size: %.6g\n", g.Params.Step)
			printGuarantee(cmd, m, g)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("method", "gd", "Method whose step size is tuned (gd or subgradient)")
	fs.Float64("lower", 0.1, "Smallest step size searched")
	fs.Float64("upper", 2, "Largest step size searched")
	fs.Int("iters", 20, "Mayfly iterations")
	fs.Int("pop", opt.MinPopulation, "Mayfly population size")
	fs.Int64("seed", 42, "Random seed")
	addParamFlags(fs)
	return cmd
}
